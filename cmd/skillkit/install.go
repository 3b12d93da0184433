package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// InstallConfig holds configuration for the install command
type InstallConfig struct {
	SkillsRoot string
	Source     string
	Mode       string
	CodexDir   string
	ClaudeDir  string
}

// NewInstallConfig creates a new InstallConfig with default values
func NewInstallConfig() *InstallConfig {
	config := &InstallConfig{
		SkillsRoot: "skills",
		Mode:       string(skills.InstallSymlink),
	}
	if home, err := os.UserHomeDir(); err == nil {
		config.CodexDir = filepath.Join(home, ".codex", "skills")
		config.ClaudeDir = filepath.Join(home, ".claude", "skills")
	}
	return config
}

// SourcePath returns the directory installed from, defaulting to the curated tier
func (c *InstallConfig) SourcePath() string {
	if c.Source != "" {
		return c.Source
	}
	return filepath.Join(c.SkillsRoot, "."+skills.TierCurated)
}

// Validate reports every invalid setting at once
func (c *InstallConfig) Validate() error {
	var result *multierror.Error

	if _, err := skills.ParseInstallMode(c.Mode); err != nil {
		result = multierror.Append(result, err)
	}
	if c.CodexDir == "" {
		result = multierror.Append(result, errors.New("codex skill directory must not be empty"))
	}
	if c.ClaudeDir == "" {
		result = multierror.Append(result, errors.New("claude skill directory must not be empty"))
	}

	return result.ErrorOrNil()
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install curated skills into agent skill directories",
	Long: `Place every curated skill into the Codex and Claude skill directories, either
as a symlink back to the repository or as a copy. Skills already installed under
the same name are replaced.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getInstallConfigFromFlags(cmd)
		exit(runInstall(cmd.Context(), config, presenter.New()))
	},
}

func init() {
	defaults := NewInstallConfig()
	installCmd.Flags().String("mode", defaults.Mode, "Install mode (symlink or copy)")
	installCmd.Flags().String("source", defaults.Source, "Directory of skills to install (default: <skills-root>/.curated)")
	installCmd.Flags().String("codex-dir", defaults.CodexDir, "Codex skill directory")
	installCmd.Flags().String("claude-dir", defaults.ClaudeDir, "Claude skill directory")

	viper.BindPFlag("install.mode", installCmd.Flags().Lookup("mode"))
	viper.BindPFlag("install.codex_dir", installCmd.Flags().Lookup("codex-dir"))
	viper.BindPFlag("install.claude_dir", installCmd.Flags().Lookup("claude-dir"))
}

func getInstallConfigFromFlags(cmd *cobra.Command) *InstallConfig {
	config := NewInstallConfig()
	config.SkillsRoot = viper.GetString("skills_root")
	config.Mode = viper.GetString("install.mode")
	config.CodexDir = viper.GetString("install.codex_dir")
	config.ClaudeDir = viper.GetString("install.claude_dir")

	if source, err := cmd.Flags().GetString("source"); err == nil {
		config.Source = source
	}

	return config
}

func runInstall(ctx context.Context, config *InstallConfig, p presenter.Presenter) int {
	if err := config.Validate(); err != nil {
		p.Error(err, "Invalid configuration")
		return exitInvalid
	}
	mode, _ := skills.ParseInstallMode(config.Mode)

	source := config.SourcePath()
	installer := skills.NewInstaller(skills.WithInstallMode(mode))
	result, err := installer.Install(ctx, source, []string{config.CodexDir, config.ClaudeDir})
	if err != nil {
		if errors.Is(err, skills.ErrRootNotFound) {
			p.Error(err, "Source directory not found")
		} else {
			p.Error(err, "Failed to install skills")
		}
		return exitFailed
	}

	p.Section(fmt.Sprintf("Installed from %s (%s)", source, mode))
	for _, name := range result.Skills {
		p.Info(name)
	}
	p.Success(fmt.Sprintf("Installed %d skill(s) to %s and %s", len(result.Skills), config.CodexDir, config.ClaudeDir))
	return exitOK
}
