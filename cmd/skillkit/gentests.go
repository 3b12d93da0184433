package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// GenTestsConfig holds configuration for the gen-tests command
type GenTestsConfig struct {
	SkillsRoot string
	TestsDir   string
	Overwrite  bool
	ShowDiff   bool
}

// NewGenTestsConfig creates a new GenTestsConfig with default values
func NewGenTestsConfig() *GenTestsConfig {
	return &GenTestsConfig{
		SkillsRoot: "skills",
	}
}

// TestsPath returns the companion test directory, defaulting to tests/skills next to the skills root
func (c *GenTestsConfig) TestsPath() string {
	if c.TestsDir != "" {
		return c.TestsDir
	}
	return filepath.Join(c.SkillsRoot, "..", filepath.FromSlash(skills.DefaultTestsDir))
}

var genTestsCmd = &cobra.Command{
	Use:   "gen-tests",
	Short: "Generate companion tests for script-backed skills",
	Long: `Write a pytest companion test for every script-backed skill that does not
have one yet. Existing tests are kept unless --overwrite is given; use --diff to
see how kept tests differ from the generated template.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getGenTestsConfigFromFlags(cmd)
		exit(runGenTests(cmd.Context(), config, presenter.New()))
	},
}

func init() {
	defaults := NewGenTestsConfig()
	genTestsCmd.Flags().String("tests-dir", defaults.TestsDir, "Companion test directory (default: tests/skills next to the skills root)")
	genTestsCmd.Flags().Bool("overwrite", defaults.Overwrite, "Replace existing companion tests")
	genTestsCmd.Flags().Bool("diff", defaults.ShowDiff, "Print a unified diff for existing tests that differ from the template")
}

func getGenTestsConfigFromFlags(cmd *cobra.Command) *GenTestsConfig {
	config := NewGenTestsConfig()
	config.SkillsRoot = viper.GetString("skills_root")

	if testsDir, err := cmd.Flags().GetString("tests-dir"); err == nil {
		config.TestsDir = testsDir
	}
	if overwrite, err := cmd.Flags().GetBool("overwrite"); err == nil {
		config.Overwrite = overwrite
	}
	if showDiff, err := cmd.Flags().GetBool("diff"); err == nil {
		config.ShowDiff = showDiff
	}

	return config
}

func runGenTests(ctx context.Context, config *GenTestsConfig, p presenter.Presenter) int {
	result, err := skills.GenerateTests(ctx, config.SkillsRoot, config.TestsPath(), config.Overwrite)
	if err != nil {
		p.Error(err, "Failed to generate tests")
		if errors.Is(err, skills.ErrRootNotFound) {
			return exitInvalid
		}
		return exitFailed
	}

	for _, path := range result.Created {
		p.Info("created " + path)
	}
	for _, path := range result.Skipped {
		p.Info("skipped " + path)
	}
	if len(result.Stale) > 0 {
		p.Warning(fmt.Sprintf("%d existing test(s) differ from the template", len(result.Stale)))
		if config.ShowDiff {
			for _, stale := range result.Stale {
				p.Section(stale.Path)
				p.Info(stale.Diff)
			}
		}
	}
	p.Success(fmt.Sprintf("Generated %d test(s), skipped %d", len(result.Created), len(result.Skipped)))
	return exitOK
}
