package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes of the validate command
const (
	exitOK      = 0
	exitFailed  = 1
	exitInvalid = 2
)

// ValidateConfig holds configuration for the validate command
type ValidateConfig struct {
	SkillsRoot        string
	Mode              string
	JSON              bool
	FailOnWarn        bool
	Quiet             bool
	RepoRoot          string
	TestsDir          string
	ScriptTimeout     time.Duration
	Python            string
	Concurrency       int
	FrontMatterParser string
	Ignore            []string
}

// NewValidateConfig creates a new ValidateConfig with default values
func NewValidateConfig() *ValidateConfig {
	return &ValidateConfig{
		SkillsRoot:        "skills",
		Mode:              string(skills.ModeFast),
		ScriptTimeout:     skills.DefaultScriptTimeout,
		Python:            skills.DefaultPython,
		FrontMatterParser: "yaml",
	}
}

// Validate reports every invalid setting at once
func (c *ValidateConfig) Validate() error {
	var result *multierror.Error

	if c.SkillsRoot == "" {
		result = multierror.Append(result, errors.New("skills root must not be empty"))
	}
	if _, err := skills.ParseMode(c.Mode); err != nil {
		result = multierror.Append(result, err)
	}
	if c.ScriptTimeout <= 0 {
		result = multierror.Append(result, errors.Errorf("script timeout must be positive, got %s", c.ScriptTimeout))
	}
	if c.Concurrency < 0 {
		result = multierror.Append(result, errors.Errorf("concurrency cannot be negative: %d", c.Concurrency))
	}
	if c.Python == "" {
		result = multierror.Append(result, errors.New("python interpreter must not be empty"))
	}
	if _, err := metadataParser(c.FrontMatterParser); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// Options translates the configuration into validator options
func (c *ValidateConfig) Options() ([]skills.Option, error) {
	mode, err := skills.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	parse, err := metadataParser(c.FrontMatterParser)
	if err != nil {
		return nil, err
	}

	opts := []skills.Option{
		skills.WithMode(mode),
		skills.WithFailOnWarn(c.FailOnWarn),
		skills.WithRepoRoot(c.RepoRoot),
		skills.WithTestsDir(c.TestsDir),
		skills.WithScriptTimeout(c.ScriptTimeout),
		skills.WithScriptRunner(skills.NewExecRunner(c.Python)),
		skills.WithMetadataParser(parse),
	}
	if c.Concurrency > 0 {
		opts = append(opts, skills.WithConcurrency(c.Concurrency))
	}
	if len(c.Ignore) > 0 {
		opts = append(opts, skills.WithDiscoveryOptions(
			skills.WithIgnorePatterns(append(append([]string{}, skills.DefaultIgnorePatterns...), c.Ignore...)...),
		))
	}
	return opts, nil
}

func metadataParser(name string) (skills.MetadataParser, error) {
	switch name {
	case "", "yaml":
		return skills.ParseMetadata, nil
	case "fallback":
		return skills.ParseMetadataFallback, nil
	default:
		return nil, errors.Errorf("invalid front matter parser %q, must be one of: yaml, fallback", name)
	}
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every skill under the skills root",
	Long: `Discover every skill package under the skills root and validate its
metadata, naming, layout and companion test. In exec mode the entry script of
script-backed skills is also run to verify the JSON output contract.

Exit codes: 0 when the run is ok, 1 when validation failed, 2 when the skills
root is missing or the configuration is invalid.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getValidateConfigFromFlags(cmd)
		exit(runValidate(cmd.Context(), config, os.Stdout, presenter.New()))
	},
}

func init() {
	defaults := NewValidateConfig()
	validateCmd.Flags().String("mode", defaults.Mode, "Validation mode (fast or exec)")
	validateCmd.Flags().Bool("json", defaults.JSON, "Emit the report as JSON on stdout")
	validateCmd.Flags().Bool("fail-on-warn", defaults.FailOnWarn, "Treat warnings as failures")
	validateCmd.Flags().BoolP("quiet", "q", defaults.Quiet, "Only list skills with findings in the text report")
	validateCmd.Flags().String("repo-root", defaults.RepoRoot, "Repository root used as script working directory (default: parent of the skills root)")
	validateCmd.Flags().String("tests-dir", defaults.TestsDir, "Companion test directory (default: <repo-root>/tests/skills)")
	validateCmd.Flags().Duration("script-timeout", defaults.ScriptTimeout, "Timeout for each entry script invocation")
	validateCmd.Flags().String("python", defaults.Python, "Interpreter used for .py entry scripts")
	validateCmd.Flags().Int("concurrency", defaults.Concurrency, "Number of skills validated in parallel (default: number of CPUs)")
	validateCmd.Flags().String("frontmatter-parser", defaults.FrontMatterParser, "Front matter parser (yaml or fallback)")
	validateCmd.Flags().StringSlice("ignore", defaults.Ignore, "Additional directory name patterns to skip during discovery")

	viper.BindPFlag("validate.mode", validateCmd.Flags().Lookup("mode"))
	viper.BindPFlag("validate.fail_on_warn", validateCmd.Flags().Lookup("fail-on-warn"))
	viper.BindPFlag("validate.quiet", validateCmd.Flags().Lookup("quiet"))
	viper.BindPFlag("validate.repo_root", validateCmd.Flags().Lookup("repo-root"))
	viper.BindPFlag("validate.tests_dir", validateCmd.Flags().Lookup("tests-dir"))
	viper.BindPFlag("validate.script_timeout", validateCmd.Flags().Lookup("script-timeout"))
	viper.BindPFlag("validate.python", validateCmd.Flags().Lookup("python"))
	viper.BindPFlag("validate.concurrency", validateCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("validate.frontmatter_parser", validateCmd.Flags().Lookup("frontmatter-parser"))
	viper.BindPFlag("validate.ignore", validateCmd.Flags().Lookup("ignore"))
}

// getValidateConfigFromFlags merges flags, environment and config file
func getValidateConfigFromFlags(cmd *cobra.Command) *ValidateConfig {
	config := getValidateConfigFromViper()

	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSON = jsonOutput
	}

	return config
}

// getValidateConfigFromViper reads the validate settings shared with watch
func getValidateConfigFromViper() *ValidateConfig {
	config := NewValidateConfig()

	config.SkillsRoot = viper.GetString("skills_root")
	config.Mode = viper.GetString("validate.mode")
	config.FailOnWarn = viper.GetBool("validate.fail_on_warn")
	config.Quiet = viper.GetBool("validate.quiet")
	config.RepoRoot = viper.GetString("validate.repo_root")
	config.TestsDir = viper.GetString("validate.tests_dir")
	config.ScriptTimeout = viper.GetDuration("validate.script_timeout")
	config.Python = viper.GetString("validate.python")
	config.Concurrency = viper.GetInt("validate.concurrency")
	config.FrontMatterParser = viper.GetString("validate.frontmatter_parser")
	config.Ignore = viper.GetStringSlice("validate.ignore")

	return config
}

// runValidate executes one validation run and returns the process exit code.
// The JSON report goes to stdout; the text report and errors go through p.
func runValidate(ctx context.Context, config *ValidateConfig, stdout io.Writer, p presenter.Presenter) int {
	log := logger.G(ctx).WithField("run_id", uuid.NewString())
	ctx = logger.WithLogger(ctx, log)

	if err := config.Validate(); err != nil {
		p.Error(err, "Invalid configuration")
		return exitInvalid
	}
	opts, err := config.Options()
	if err != nil {
		p.Error(err, "Invalid configuration")
		return exitInvalid
	}

	log.WithField("skills_root", config.SkillsRoot).WithField("mode", config.Mode).Info("validating skills")

	report, err := skills.NewValidator(opts...).Run(ctx, config.SkillsRoot)
	if err != nil {
		if errors.Is(err, skills.ErrRootNotFound) {
			p.Error(err, "Cannot validate skills")
			return exitInvalid
		}
		p.Error(err, "Validation aborted")
		return exitFailed
	}

	if config.JSON {
		if err := report.WriteJSON(stdout); err != nil {
			p.Error(err, "Failed to write report")
			return exitFailed
		}
	} else {
		quiet := p.IsQuiet()
		p.SetQuiet(config.Quiet)
		p.Report(report)
		p.SetQuiet(quiet)
	}

	log.WithFields(map[string]interface{}{
		"skills_checked": report.Summary.SkillsChecked,
		"errors":         report.Summary.Errors,
		"warnings":       report.Summary.Warnings,
	}).Info(fmt.Sprintf("validation finished, ok=%t", report.Summary.OK))

	return report.ExitStatus()
}
