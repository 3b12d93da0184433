package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfigValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, NewValidateConfig().Validate())
	})

	t.Run("reports every problem", func(t *testing.T) {
		config := NewValidateConfig()
		config.Mode = "slow"
		config.ScriptTimeout = 0
		config.Concurrency = -1
		config.FrontMatterParser = "toml"

		err := config.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid mode "slow"`)
		assert.Contains(t, err.Error(), "script timeout must be positive")
		assert.Contains(t, err.Error(), "concurrency cannot be negative")
		assert.Contains(t, err.Error(), `invalid front matter parser "toml"`)
	})
}

func TestValidateConfigOptions(t *testing.T) {
	config := NewValidateConfig()
	config.FrontMatterParser = "fallback"
	config.Concurrency = 2
	config.Ignore = []string{"drafts"}

	opts, err := config.Options()
	require.NoError(t, err)
	// mode, fail-on-warn, repo root, tests dir, timeout, runner, parser, concurrency, ignore
	assert.Len(t, opts, 9)
}

func TestRunValidate(t *testing.T) {
	t.Run("clean tree exits 0 with json report", func(t *testing.T) {
		repo := t.TempDir()
		root := filepath.Join(repo, "skills")
		writeSkill(t, root, ".curated/git-status", "git-status")
		writeCompanionTest(t, repo, "test_git_status.py")

		config := NewValidateConfig()
		config.SkillsRoot = root
		config.JSON = true

		p, _, _ := newBufferedPresenter()
		var stdout bytes.Buffer
		code := runValidate(context.Background(), config, &stdout, p)
		assert.Equal(t, exitOK, code)

		var report skills.RunReport
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
		assert.True(t, report.Summary.OK)
		assert.Equal(t, 1, report.Summary.SkillsChecked)
		assert.Equal(t, skills.ModeFast, report.Summary.Mode)
		require.Len(t, report.Reports, 1)
		assert.Equal(t, "curated", report.Reports[0].Tier)
		assert.Empty(t, report.Reports[0].Issues)
	})

	t.Run("name mismatch exits 1 with text report", func(t *testing.T) {
		repo := t.TempDir()
		root := filepath.Join(repo, "skills")
		dir := writeSkill(t, root, ".experimental/build-go", "build-node")
		writeCompanionTest(t, repo, "test_build_node.py")

		config := NewValidateConfig()
		config.SkillsRoot = root

		p, _, errorOutput := newBufferedPresenter()
		var stdout bytes.Buffer
		code := runValidate(context.Background(), config, &stdout, p)
		assert.Equal(t, exitFailed, code)
		assert.Empty(t, stdout.String())
		assert.Contains(t, errorOutput.String(), filepath.Join(dir, "SKILL.md")+": name mismatch")
		assert.Contains(t, errorOutput.String(), "FAILED: 1 skill(s) checked in fast mode, 1 error(s), 0 warning(s)")
	})

	t.Run("warnings fail only with fail-on-warn", func(t *testing.T) {
		repo := t.TempDir()
		root := filepath.Join(repo, "skills")
		dir := writeSkill(t, root, ".experimental/lint-go", "lint-go")
		require.NoError(t, os.RemoveAll(filepath.Join(dir, "references")))

		config := NewValidateConfig()
		config.SkillsRoot = root
		p, _, _ := newBufferedPresenter()
		assert.Equal(t, exitOK, runValidate(context.Background(), config, &bytes.Buffer{}, p))

		config.FailOnWarn = true
		assert.Equal(t, exitFailed, runValidate(context.Background(), config, &bytes.Buffer{}, p))
	})

	t.Run("missing root exits 2", func(t *testing.T) {
		config := NewValidateConfig()
		config.SkillsRoot = filepath.Join(t.TempDir(), "nope")

		p, _, errorOutput := newBufferedPresenter()
		var stdout bytes.Buffer
		assert.Equal(t, exitInvalid, runValidate(context.Background(), config, &stdout, p))
		assert.Empty(t, stdout.String())
		assert.Contains(t, errorOutput.String(), "skills root not found")
	})

	t.Run("invalid configuration exits 2", func(t *testing.T) {
		config := NewValidateConfig()
		config.SkillsRoot = t.TempDir()
		config.Mode = "deep"
		config.ScriptTimeout = time.Second

		p, _, errorOutput := newBufferedPresenter()
		assert.Equal(t, exitInvalid, runValidate(context.Background(), config, &bytes.Buffer{}, p))
		assert.Contains(t, errorOutput.String(), "Invalid configuration")
	})

	t.Run("quiet text report lists only skills with findings", func(t *testing.T) {
		repo := t.TempDir()
		root := filepath.Join(repo, "skills")
		writeSkill(t, root, ".curated/git-status", "git-status")
		writeSkill(t, root, ".experimental/build-go", "build-node")

		config := NewValidateConfig()
		config.SkillsRoot = root
		config.Quiet = true

		p, _, errorOutput := newBufferedPresenter()
		assert.Equal(t, exitFailed, runValidate(context.Background(), config, &bytes.Buffer{}, p))
		assert.NotContains(t, errorOutput.String(), "git-status")
		assert.Contains(t, errorOutput.String(), "build-go")
		assert.False(t, p.IsQuiet())
	})

	t.Run("root without skills exits 2 before any report", func(t *testing.T) {
		config := NewValidateConfig()
		config.SkillsRoot = t.TempDir()
		config.JSON = true

		p, _, errorOutput := newBufferedPresenter()
		var stdout bytes.Buffer
		assert.Equal(t, exitInvalid, runValidate(context.Background(), config, &stdout, p))
		assert.Empty(t, stdout.String())
		assert.Contains(t, errorOutput.String(), "Cannot validate skills")
	})

	t.Run("cancelled run reports partial results", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "skills")
		writeSkill(t, root, ".curated/notes", "notes")

		config := NewValidateConfig()
		config.SkillsRoot = root
		config.JSON = true

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p, _, _ := newBufferedPresenter()
		var stdout bytes.Buffer
		assert.Equal(t, exitOK, runValidate(ctx, config, &stdout, p))
		assert.Contains(t, stdout.String(), `"partial": true`)
	})
}
