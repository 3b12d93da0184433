package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/osutil"
	"github.com/pkg/errors"
)

// ExitCode is an exit status defined by the script contract
type ExitCode int

// Script contract exit codes
const (
	ExitSuccess      ExitCode = 0
	ExitUnmet        ExitCode = 2
	ExitPrecondition ExitCode = 3
	ExitError        ExitCode = 4
)

// DefaultScriptTimeout bounds each entry script invocation
const DefaultScriptTimeout = 30 * time.Second

// DefaultPython is the interpreter used for .py entry scripts
const DefaultPython = "python3"

const maxStderrExcerpt = 400

// Invocation describes a single entry script call
type Invocation struct {
	Entry   string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// ScriptResult is the captured outcome of an invocation that ran to completion.
// A non-zero exit code is a result, not an error.
type ScriptResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// ScriptRunner runs entry scripts
type ScriptRunner interface {
	Run(ctx context.Context, inv Invocation) (*ScriptResult, error)
}

// ExecRunner runs entry scripts as subprocesses in their own process group so
// that a timeout kills the whole tree
type ExecRunner struct {
	python string
}

// NewExecRunner creates an ExecRunner that runs .py entries through python
func NewExecRunner(python string) *ExecRunner {
	if python == "" {
		python = DefaultPython
	}
	return &ExecRunner{python: python}
}

func (r *ExecRunner) commandLine(inv Invocation) (string, []string) {
	if strings.EqualFold(filepath.Ext(inv.Entry), ".py") {
		return r.python, append([]string{inv.Entry}, inv.Args...)
	}
	return inv.Entry, inv.Args
}

// Run executes the invocation with timeout enforcement
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*ScriptResult, error) {
	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name, args := r.commandLine(inv)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = inv.Dir
	cmd.WaitDelay = osutil.GracefulShutdownDelay
	osutil.SetProcessGroup(cmd)
	osutil.SetProcessGroupKill(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &ScriptResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return result, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, errors.Errorf("timed out after %s", timeout)
	}
	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "interrupted")
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return nil, errors.Wrapf(err, "failed to start %s", name)
}

// ContractChecker verifies that entry scripts honour the script contract
type ContractChecker struct {
	runner   ScriptRunner
	repoRoot string
	timeout  time.Duration
}

// NewContractChecker creates a checker that runs scripts from repoRoot
func NewContractChecker(runner ScriptRunner, repoRoot string, timeout time.Duration) *ContractChecker {
	return &ContractChecker{
		runner:   runner,
		repoRoot: repoRoot,
		timeout:  timeout,
	}
}

// Check runs the entry script twice, once with --help and once as a JSON
// dry run, and returns every contract violation found
func (c *ContractChecker) Check(ctx context.Context, skill Skill) []Issue {
	if !skill.ScriptBacked() {
		return nil
	}

	entry, err := filepath.Abs(skill.EntryScript)
	if err != nil {
		entry = skill.EntryScript
	}
	log := logger.G(ctx).WithField("entry", entry)

	var issues []Issue

	log.Debug("checking --help")
	help, err := c.runner.Run(ctx, Invocation{Entry: entry, Args: []string{"--help"}, Dir: c.repoRoot, Timeout: c.timeout})
	switch {
	case err != nil:
		issues = append(issues, newError(KindContract, skill.EntryScript, "--help failed: %v", err))
	case help.ExitCode != 0:
		issues = append(issues, newError(KindContract, skill.EntryScript,
			"--help exited with code %d: %s", help.ExitCode, stderrExcerpt(help.Stderr)))
	}

	log.Debug("checking --json dry run")
	run, err := c.runner.Run(ctx, Invocation{Entry: entry, Args: []string{"--json", "--cwd", c.repoRoot}, Dir: c.repoRoot, Timeout: c.timeout})
	if err != nil {
		return append(issues, newError(KindContract, skill.EntryScript, "--json failed: %v", err))
	}

	return append(issues, CheckScriptOutput(skill.EntryScript, run, false)...)
}

// CheckScriptOutput validates the stdout and exit code of a --json invocation.
// applied tells whether --apply was passed; without it changed must be false.
func CheckScriptOutput(path string, result *ScriptResult, applied bool) []Issue {
	stdout := bytes.TrimSpace(result.Stdout)
	if len(stdout) == 0 {
		return []Issue{newError(KindContract, path, "--json produced empty stdout (exit code %d): %s",
			result.ExitCode, stderrExcerpt(result.Stderr))}
	}

	dec := json.NewDecoder(bytes.NewReader(stdout))
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return []Issue{newError(KindContract, path, "--json output is not valid JSON: %v", err)}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return []Issue{newError(KindContract, path, "--json output must be exactly one JSON object")}
	}
	obj, isObject := raw.(map[string]any)
	if !isObject {
		return []Issue{newError(KindContract, path, "--json output must be a JSON object, got %s", jsonTypeName(raw))}
	}

	var issues []Issue
	ok, okValid := obj["ok"].(bool)
	if !okValid {
		issues = append(issues, keyTypeIssue(path, obj, "ok", "boolean"))
	}
	if _, valid := obj["summary"].(string); !valid {
		issues = append(issues, keyTypeIssue(path, obj, "summary", "string"))
	}
	changed, changedValid := obj["changed"].(bool)
	if !changedValid {
		issues = append(issues, keyTypeIssue(path, obj, "changed", "boolean"))
	}

	if changedValid && changed && !applied {
		issues = append(issues, newError(KindContract, path, "dry run reported changed=true without --apply"))
	}

	switch ExitCode(result.ExitCode) {
	case ExitSuccess:
		if okValid && !ok {
			issues = append(issues, newError(KindContract, path, "exit code 0 requires ok=true, got ok=false"))
		}
	case ExitPrecondition:
		if okValid && ok {
			issues = append(issues, newError(KindContract, path, "exit code 3 requires ok=false, got ok=true"))
		}
	default:
		issues = append(issues, newError(KindContract, path,
			"unexpected exit code %d for --json dry run, want 0 or 3: %s", result.ExitCode, stderrExcerpt(result.Stderr)))
	}

	return issues
}

func keyTypeIssue(path string, obj map[string]any, key, want string) Issue {
	value, present := obj[key]
	if !present {
		return newError(KindContract, path, "--json output is missing required key %q", key)
	}
	return newError(KindContract, path, "--json output key %q must be a %s, got %s", key, want, jsonTypeName(value))
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

// stderrExcerpt returns at most maxStderrExcerpt characters of stderr
func stderrExcerpt(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	if s == "" {
		return "stderr empty"
	}
	runes := []rune(s)
	if len(runes) > maxStderrExcerpt {
		s = string(runes[:maxStderrExcerpt-3]) + "..."
	}
	return "stderr: " + s
}
