package skills

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner answers invocations from a table keyed by the first argument and
// records every call
type fakeRunner struct {
	mu        sync.Mutex
	calls     []Invocation
	responses map[string]*ScriptResult
	errs      map[string]error
}

func (f *fakeRunner) Run(_ context.Context, inv Invocation) (*ScriptResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, inv)

	key := inv.Args[0]
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	if result, ok := f.responses[key]; ok {
		return result, nil
	}
	return &ScriptResult{}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func compliantRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]*ScriptResult{
		"--help": {ExitCode: 0, Stdout: []byte("usage: run [--json] [--cwd DIR] [--apply]\n")},
		"--json": {ExitCode: 0, Stdout: []byte(`{"ok": true, "summary": "clean", "changed": false, "extra": 1}`)},
	}}
}

func TestCheckScriptOutput(t *testing.T) {
	tests := []struct {
		name     string
		stdout   string
		stderr   string
		exitCode int
		applied  bool
		want     []string
	}{
		{
			name:   "compliant success",
			stdout: `{"ok": true, "summary": "all good", "changed": false}`,
		},
		{
			name:     "compliant precondition failure",
			stdout:   `{"ok": false, "summary": "not a git repository", "changed": false}`,
			exitCode: 3,
		},
		{
			name:    "changed allowed with apply",
			stdout:  `{"ok": true, "summary": "fixed", "changed": true}`,
			applied: true,
		},
		{
			name:   "extra keys ignored",
			stdout: `{"ok": true, "summary": "s", "changed": false, "actions": [], "metadata": {"a": 1}}`,
		},
		{
			name:     "empty stdout",
			stdout:   "  \n",
			stderr:   "Traceback: boom",
			exitCode: 1,
			want:     []string{"--json produced empty stdout (exit code 1): stderr: Traceback: boom"},
		},
		{
			name:   "invalid json",
			stdout: `{"ok": true,`,
			want:   []string{"--json output is not valid JSON"},
		},
		{
			name:   "trailing text",
			stdout: `{"ok": true, "summary": "s", "changed": false} done`,
			want:   []string{"--json output must be exactly one JSON object"},
		},
		{
			name:   "array",
			stdout: `[{"ok": true}]`,
			want:   []string{"--json output must be a JSON object, got array"},
		},
		{
			name:   "missing keys",
			stdout: `{}`,
			want: []string{
				`--json output is missing required key "ok"`,
				`--json output is missing required key "summary"`,
				`--json output is missing required key "changed"`,
			},
		},
		{
			name:   "wrong key types",
			stdout: `{"ok": "yes", "summary": 3, "changed": null}`,
			want: []string{
				`--json output key "ok" must be a boolean, got string`,
				`--json output key "summary" must be a string, got number`,
				`--json output key "changed" must be a boolean, got null`,
			},
		},
		{
			name:   "changed without apply",
			stdout: `{"ok": true, "summary": "s", "changed": true}`,
			want:   []string{"dry run reported changed=true without --apply"},
		},
		{
			name:   "exit 0 with ok false",
			stdout: `{"ok": false, "summary": "s", "changed": false}`,
			want:   []string{"exit code 0 requires ok=true, got ok=false"},
		},
		{
			name:     "exit 3 with ok true",
			stdout:   `{"ok": true, "summary": "s", "changed": false}`,
			exitCode: 3,
			want:     []string{"exit code 3 requires ok=false, got ok=true"},
		},
		{
			name:     "exit code out of range",
			stdout:   `{"ok": false, "summary": "s", "changed": false}`,
			exitCode: 2,
			want:     []string{"unexpected exit code 2 for --json dry run, want 0 or 3: stderr empty"},
		},
		{
			name:     "shape error still checks exit range",
			stdout:   `{"summary": "s", "changed": false}`,
			exitCode: 4,
			want: []string{
				`--json output is missing required key "ok"`,
				"unexpected exit code 4 for --json dry run",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &ScriptResult{ExitCode: tt.exitCode, Stdout: []byte(tt.stdout), Stderr: []byte(tt.stderr)}
			issues := CheckScriptOutput("scripts/run.py", result, tt.applied)

			require.Len(t, issues, len(tt.want), "issues: %v", issues)
			for i, want := range tt.want {
				assert.Contains(t, issues[i].Message, want)
				assert.Equal(t, LevelError, issues[i].Level)
				assert.Equal(t, KindContract, issues[i].Kind)
				assert.Equal(t, "scripts/run.py", issues[i].Path)
			}
		})
	}
}

func TestStderrExcerpt(t *testing.T) {
	assert.Equal(t, "stderr empty", stderrExcerpt([]byte("  \n")))
	assert.Equal(t, "stderr: oops", stderrExcerpt([]byte("oops\n")))

	long := stderrExcerpt([]byte(strings.Repeat("é", 1000)))
	assert.Equal(t, "stderr: "+strings.Repeat("é", 397)+"...", long)
	assert.Len(t, []rune(strings.TrimPrefix(long, "stderr: ")), maxStderrExcerpt)
}

func TestContractCheckerCheck(t *testing.T) {
	skill := Skill{Dir: "/repo/skills/.curated/git-status", EntryScript: "/repo/skills/.curated/git-status/scripts/run.py"}

	t.Run("compliant script", func(t *testing.T) {
		runner := compliantRunner()
		checker := NewContractChecker(runner, "/repo", 5*time.Second)

		assert.Empty(t, checker.Check(context.Background(), skill))
		require.Len(t, runner.calls, 2)
		assert.Equal(t, []string{"--help"}, runner.calls[0].Args)
		assert.Equal(t, []string{"--json", "--cwd", "/repo"}, runner.calls[1].Args)
		for _, call := range runner.calls {
			assert.Equal(t, "/repo", call.Dir)
			assert.Equal(t, skill.EntryScript, call.Entry)
			assert.Equal(t, 5*time.Second, call.Timeout)
		}
	})

	t.Run("instruction skill is not run", func(t *testing.T) {
		runner := compliantRunner()
		checker := NewContractChecker(runner, "/repo", time.Second)

		assert.Empty(t, checker.Check(context.Background(), Skill{Dir: "/repo/skills/.curated/notes"}))
		assert.Zero(t, runner.callCount())
	})

	t.Run("help failure is reported with stderr", func(t *testing.T) {
		runner := compliantRunner()
		runner.responses["--help"] = &ScriptResult{ExitCode: 2, Stderr: []byte("unknown flag --help")}
		checker := NewContractChecker(runner, "/repo", time.Second)

		issues := checker.Check(context.Background(), skill)
		require.Len(t, issues, 1)
		assert.Equal(t, "--help exited with code 2: stderr: unknown flag --help", issues[0].Message)
		assert.Equal(t, skill.EntryScript, issues[0].Path)
	})

	t.Run("runner errors are issues", func(t *testing.T) {
		runner := compliantRunner()
		runner.errs = map[string]error{
			"--help": errors.New("timed out after 1s"),
			"--json": errors.New("timed out after 1s"),
		}
		checker := NewContractChecker(runner, "/repo", time.Second)

		assert.Equal(t, []string{
			"--help failed: timed out after 1s",
			"--json failed: timed out after 1s",
		}, issueMessages(checker.Check(context.Background(), skill)))
	})
}
