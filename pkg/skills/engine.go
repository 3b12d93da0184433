package skills

import (
	"context"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Validator runs the full validation pipeline over a skills root:
// discover, parse, static checks, optional contract checks, test presence,
// cross-tree name uniqueness and aggregation.
type Validator struct {
	mode          Mode
	repoRoot      string
	testsDir      string
	runner        ScriptRunner
	timeout       time.Duration
	concurrency   int
	failOnWarn    bool
	parse         MetadataParser
	discoveryOpts []DiscoveryOption
}

// Option is a function that configures a Validator
type Option func(*Validator)

// WithMode sets the validation mode
func WithMode(mode Mode) Option {
	return func(v *Validator) {
		v.mode = mode
	}
}

// WithRepoRoot sets the repository root used as the working directory and
// --cwd of entry scripts. Defaults to the parent of the skills root.
func WithRepoRoot(dir string) Option {
	return func(v *Validator) {
		v.repoRoot = dir
	}
}

// WithTestsDir sets the companion test directory. Defaults to tests/skills
// under the repository root.
func WithTestsDir(dir string) Option {
	return func(v *Validator) {
		v.testsDir = dir
	}
}

// WithScriptRunner replaces the subprocess runner used in exec mode
func WithScriptRunner(runner ScriptRunner) Option {
	return func(v *Validator) {
		v.runner = runner
	}
}

// WithScriptTimeout bounds every entry script invocation
func WithScriptTimeout(timeout time.Duration) Option {
	return func(v *Validator) {
		v.timeout = timeout
	}
}

// WithConcurrency sets how many skills are validated at once
func WithConcurrency(n int) Option {
	return func(v *Validator) {
		v.concurrency = n
	}
}

// WithFailOnWarn makes warnings fail the run
func WithFailOnWarn(failOnWarn bool) Option {
	return func(v *Validator) {
		v.failOnWarn = failOnWarn
	}
}

// WithMetadataParser replaces the front matter parser
func WithMetadataParser(parse MetadataParser) Option {
	return func(v *Validator) {
		v.parse = parse
	}
}

// WithDiscoveryOptions passes options through to skill discovery
func WithDiscoveryOptions(opts ...DiscoveryOption) Option {
	return func(v *Validator) {
		v.discoveryOpts = append(v.discoveryOpts, opts...)
	}
}

// NewValidator creates a Validator, defaulting to fast mode
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		mode:        ModeFast,
		timeout:     DefaultScriptTimeout,
		concurrency: runtime.NumCPU(),
		parse:       ParseMetadata,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.concurrency < 1 {
		v.concurrency = 1
	}
	if v.runner == nil {
		v.runner = NewExecRunner(DefaultPython)
	}
	return v
}

type skillResult struct {
	report SkillReport
	meta   *Metadata
}

// Run validates every skill under root. Only a missing, unreadable or
// descriptor-free root is an error; per-skill problems are recorded as issues. When ctx is cancelled
// no new skills are started and the report covers the skills that completed,
// with Summary.Partial set.
func (v *Validator) Run(ctx context.Context, root string) (*RunReport, error) {
	discovery, err := NewDiscovery(root, v.discoveryOpts...)
	if err != nil {
		return nil, err
	}
	found, err := discovery.Discover(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.G(ctx).Warn("validation interrupted during discovery, report is partial")
			report := Aggregate(nil, v.mode, v.failOnWarn)
			report.Summary.Partial = true
			return report, nil
		}
		return nil, err
	}

	repoRoot, err := v.resolveRepoRoot(root)
	if err != nil {
		return nil, err
	}
	testsDir := v.testsDir
	if testsDir == "" {
		testsDir = filepath.Join(repoRoot, filepath.FromSlash(DefaultTestsDir))
	}

	var contract *ContractChecker
	if v.mode == ModeExec {
		contract = NewContractChecker(v.runner, repoRoot, v.timeout)
	}

	log := logger.G(ctx).WithField("mode", v.mode)
	log.WithField("skills", len(found)).Debug("discovered skills")

	results := make([]*skillResult, len(found))
	g := new(errgroup.Group)
	g.SetLimit(v.concurrency)
	for i, skill := range found {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = v.checkSkill(ctx, skill, testsDir, contract)
			return nil
		})
	}
	_ = g.Wait()

	reports := reduceNames(found, results)
	report := Aggregate(reports, v.mode, v.failOnWarn)
	report.Summary.Partial = len(reports) < len(found)
	if report.Summary.Partial {
		log.WithField("checked", len(reports)).Warn("validation interrupted, report is partial")
	}
	return report, nil
}

func (v *Validator) resolveRepoRoot(root string) (string, error) {
	dir := v.repoRoot
	if dir == "" {
		dir = filepath.Join(root, "..")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve repository root %s", dir)
	}
	return abs, nil
}

// checkSkill validates one skill. It returns nil when the skill was not
// started, or when cancellation cut its contract checks short.
func (v *Validator) checkSkill(ctx context.Context, skill Skill, testsDir string, contract *ContractChecker) *skillResult {
	if ctx.Err() != nil {
		return nil
	}

	var result *skillResult
	telemetry.WithSpanFunc(ctx, "skills.check", func(ctx context.Context) {
		log := logger.G(ctx).WithField("skill", skill.RelDir)

		meta, issues := ValidateStatic(skill, v.parse)
		if contract != nil {
			issues = append(issues, contract.Check(ctx, skill)...)
			if ctx.Err() != nil {
				log.Debug("contract checks interrupted, dropping skill from report")
				return
			}
		}

		name := skill.DirName()
		if meta != nil && meta.Name != "" {
			name = meta.Name
		}
		issues = append(issues, CheckTestPresence(skill, name, testsDir)...)

		report := SkillReport{
			SkillDir:     skill.Dir,
			Tier:         skill.Tier,
			ScriptBacked: skill.ScriptBacked(),
			Issues:       issues,
		}
		if meta != nil {
			report.Name = meta.Name
			report.Description = meta.Description
		}

		errs, warnings := CountLevels(issues)
		telemetry.SetAttributes(ctx,
			attribute.Int("skill.errors", errs),
			attribute.Int("skill.warnings", warnings),
		)
		log.WithField("errors", errs).WithField("warnings", warnings).Debug("checked skill")

		result = &skillResult{report: report, meta: meta}
	},
		attribute.String("skill.dir", skill.RelDir),
		attribute.String("skill.tier", skill.Tier),
	)
	return result
}

// reduceNames applies the cross-tree uniqueness check in discovery order and
// returns the reports of every completed skill
func reduceNames(found []Skill, results []*skillResult) []SkillReport {
	registry := NewNameRegistry()
	reports := make([]SkillReport, 0, len(results))

	for i, result := range results {
		if result == nil {
			continue
		}
		report := result.report
		if result.meta != nil && result.meta.Name != "" {
			if owner, ok := registry.Register(result.meta.Name, found[i].DescriptorPath); !ok {
				report.Issues = append(report.Issues, newError(KindNaming, found[i].DescriptorPath,
					"duplicate name %q, first declared in %s", result.meta.Name, owner))
			}
		}
		reports = append(reports, report)
	}

	return reports
}
