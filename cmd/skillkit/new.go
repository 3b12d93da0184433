package main

import (
	"fmt"
	"path/filepath"

	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewSkillConfig holds configuration for the new command
type NewSkillConfig struct {
	Description   string
	Tier          string
	RunType       string
	OutRoot       string
	License       string
	Author        string
	Tags          string
	Compatibility string
	MakeTests     bool
	TestsDir      string
}

// NewNewSkillConfig creates a new NewSkillConfig with default values
func NewNewSkillConfig() *NewSkillConfig {
	return &NewSkillConfig{
		Tier:    skills.TierExperimental,
		RunType: string(skills.RunTypeInstruction),
		OutRoot: "skills",
	}
}

// Request builds the scaffold request for a skill called name
func (c *NewSkillConfig) Request(name string) skills.CreateSkillRequest {
	testsDir := c.TestsDir
	if testsDir == "" {
		testsDir = filepath.Join(c.OutRoot, "..", filepath.FromSlash(skills.DefaultTestsDir))
	}

	return skills.CreateSkillRequest{
		Name:          name,
		Description:   c.Description,
		Tier:          c.Tier,
		RunType:       skills.RunType(c.RunType),
		OutRoot:       c.OutRoot,
		License:       c.License,
		Author:        c.Author,
		Tags:          skills.ParseTags(c.Tags),
		Compatibility: c.Compatibility,
		MakeTests:     c.MakeTests,
		TestsDir:      testsDir,
	}
}

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Scaffold a new skill",
	Long: `Create a skill directory under <skills-root>/.<tier>/<name> with a SKILL.md
descriptor and references/REFERENCE.md. Script skills also get a contract
compliant scripts/run.py and, with --make-tests, a companion pytest file.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getNewSkillConfigFromFlags(cmd)
		exit(runNew(config.Request(args[0]), presenter.New()))
	},
}

func init() {
	defaults := NewNewSkillConfig()
	newCmd.Flags().StringP("description", "d", defaults.Description, "One line description of the skill")
	newCmd.Flags().String("tier", defaults.Tier, "Tier to create the skill in (curated, experimental, system)")
	newCmd.Flags().String("run-type", defaults.RunType, "Skill kind (instruction or script)")
	newCmd.Flags().String("license", defaults.License, "License identifier for the descriptor")
	newCmd.Flags().String("author", defaults.Author, "Author recorded in the descriptor metadata")
	newCmd.Flags().String("tags", defaults.Tags, "Comma separated tags")
	newCmd.Flags().String("compatibility", defaults.Compatibility, "Compatibility note for the descriptor")
	newCmd.Flags().Bool("make-tests", defaults.MakeTests, "Also write the companion test for script skills")
	newCmd.Flags().String("tests-dir", defaults.TestsDir, "Companion test directory (default: tests/skills next to the skills root)")

	newCmd.MarkFlagRequired("description")
}

func getNewSkillConfigFromFlags(cmd *cobra.Command) *NewSkillConfig {
	config := NewNewSkillConfig()
	config.OutRoot = viper.GetString("skills_root")

	if description, err := cmd.Flags().GetString("description"); err == nil {
		config.Description = description
	}
	if tier, err := cmd.Flags().GetString("tier"); err == nil {
		config.Tier = tier
	}
	if runType, err := cmd.Flags().GetString("run-type"); err == nil {
		config.RunType = runType
	}
	if license, err := cmd.Flags().GetString("license"); err == nil {
		config.License = license
	}
	if author, err := cmd.Flags().GetString("author"); err == nil {
		config.Author = author
	}
	if tags, err := cmd.Flags().GetString("tags"); err == nil {
		config.Tags = tags
	}
	if compatibility, err := cmd.Flags().GetString("compatibility"); err == nil {
		config.Compatibility = compatibility
	}
	if makeTests, err := cmd.Flags().GetBool("make-tests"); err == nil {
		config.MakeTests = makeTests
	}
	if testsDir, err := cmd.Flags().GetString("tests-dir"); err == nil {
		config.TestsDir = testsDir
	}

	return config
}

func runNew(request skills.CreateSkillRequest, p presenter.Presenter) int {
	created, err := skills.CreateSkill(request)
	if err != nil {
		p.Error(err, "Failed to create skill")
		return exitFailed
	}

	p.Success(fmt.Sprintf("Created skill %s in %s", request.Name, request.Dir()))
	for _, path := range created {
		p.Info("  " + path)
	}
	return exitOK
}
