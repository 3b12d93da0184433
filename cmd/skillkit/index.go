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

// IndexConfig holds configuration for the index command
type IndexConfig struct {
	SkillsRoot string
	Output     string
}

// NewIndexConfig creates a new IndexConfig with default values
func NewIndexConfig() *IndexConfig {
	return &IndexConfig{
		SkillsRoot: "skills",
	}
}

// OutputPath returns the index file location, defaulting to index.json in the skills root
func (c *IndexConfig) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return filepath.Join(c.SkillsRoot, "index.json")
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Write a JSON index of every skill",
	Long: `Read the descriptor of every skill under the skills root and write a JSON
array of {name, description, path, tier} entries sorted by tier and name.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getIndexConfigFromFlags(cmd)
		exit(runIndex(cmd.Context(), config, presenter.New()))
	},
}

func init() {
	defaults := NewIndexConfig()
	indexCmd.Flags().StringP("output", "o", defaults.Output, "Index file to write (default: <skills-root>/index.json)")
}

func getIndexConfigFromFlags(cmd *cobra.Command) *IndexConfig {
	config := NewIndexConfig()
	config.SkillsRoot = viper.GetString("skills_root")

	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}

	return config
}

func runIndex(ctx context.Context, config *IndexConfig, p presenter.Presenter) int {
	entries, err := skills.BuildIndex(ctx, config.SkillsRoot, skills.ParseMetadata)
	if err != nil {
		p.Error(err, "Failed to build index")
		if errors.Is(err, skills.ErrRootNotFound) {
			return exitInvalid
		}
		return exitFailed
	}

	output := config.OutputPath()
	if err := skills.WriteIndex(output, entries); err != nil {
		p.Error(err, "Failed to write index")
		return exitFailed
	}

	p.Success(fmt.Sprintf("Wrote %d skill(s) to %s", len(entries), output))
	return exitOK
}
