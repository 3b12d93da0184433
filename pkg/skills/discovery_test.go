package skills

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFromRelDir(t *testing.T) {
	tests := []struct {
		relDir string
		want   string
	}{
		{".curated/git-status", "curated"},
		{".experimental/build-go", "experimental"},
		{"system/notes", "system"},
		{".experimental/group/lint-go", "experimental"},
		{"loose-skill", "unclassified"},
		{"./x", "unclassified"},
	}
	for _, tt := range tests {
		t.Run(tt.relDir, func(t *testing.T) {
			assert.Equal(t, tt.want, TierFromRelDir(tt.relDir))
		})
	}
}

func TestNewDiscovery(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		d, err := NewDiscovery("skills")
		require.NoError(t, err)
		assert.Equal(t, "skills", d.Root())
		assert.Len(t, d.ignore, len(DefaultIgnorePatterns))
		assert.Equal(t, DefaultEntryScripts, d.entryScripts)
	})

	t.Run("invalid ignore pattern", func(t *testing.T) {
		_, err := NewDiscovery("skills", WithIgnorePatterns("[unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid ignore pattern "[unclosed"`)
	})
}

func TestDiscoveryIgnored(t *testing.T) {
	d, err := NewDiscovery("skills")
	require.NoError(t, err)

	assert.True(t, d.Ignored("node_modules/pkg/SKILL.md"))
	assert.True(t, d.Ignored(".experimental/tool/.venv/lib/SKILL.md"))
	assert.True(t, d.Ignored("dist/skill.egg-info/SKILL.md"))
	assert.False(t, d.Ignored(".curated/git-status/SKILL.md"))
	assert.False(t, d.Ignored(".experimental/gitlab/SKILL.md"))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, ".experimental/build-go", "build-go")
	writeScriptSkill(t, root, ".curated/git-status", "git-status", "#!/bin/sh\n")
	writeSkill(t, root, "loose", "loose")
	writeFile(t, root, ".system/py-tool/scripts/run.py", "print('hi')\n", 0o644)
	writeFile(t, root, ".system/py-tool/SKILL.md", descriptor("py-tool", "Python tool."), 0o644)
	writeSkill(t, root, ".curated/git-status/node_modules/dep", "dep")
	writeSkill(t, root, ".experimental/__pycache__/stale", "stale")
	// a directory named SKILL.md is not a descriptor
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".experimental", "odd", "SKILL.md"), 0o755))

	d, err := NewDiscovery(root)
	require.NoError(t, err)
	found, err := d.Discover(context.Background())
	require.NoError(t, err)

	var relDirs []string
	for _, skill := range found {
		relDirs = append(relDirs, skill.RelDir)
	}
	assert.Equal(t, []string{".curated/git-status", ".experimental/build-go", ".system/py-tool", "loose"}, relDirs)

	gitStatus := found[0]
	assert.Equal(t, "curated", gitStatus.Tier)
	assert.Equal(t, filepath.Join(root, ".curated", "git-status"), gitStatus.Dir)
	assert.Equal(t, filepath.Join(root, ".curated", "git-status", "SKILL.md"), gitStatus.DescriptorPath)
	assert.Equal(t, filepath.Join(root, ".curated", "git-status", "scripts", "run"), gitStatus.EntryScript)
	assert.True(t, gitStatus.ScriptBacked())
	assert.Equal(t, "git-status", gitStatus.DirName())

	assert.False(t, found[1].ScriptBacked())
	assert.Equal(t, filepath.Join(root, ".system", "py-tool", "scripts", "run.py"), found[2].EntryScript)
	assert.Equal(t, TierUnclassified, found[3].Tier)
}

func TestDiscoverCustomOptions(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, ".experimental/drafts/wip", "wip")
	writeSkill(t, root, ".experimental/ready", "ready")
	writeFile(t, root, ".experimental/ready/bin/main", "#!/bin/sh\n", 0o755)

	d, err := NewDiscovery(root, WithIgnorePatterns("drafts"), WithEntryScripts("bin/main"))
	require.NoError(t, err)
	found, err := d.Discover(context.Background())
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, ".experimental/ready", found[0].RelDir)
	assert.True(t, found[0].ScriptBacked())
}

func TestDiscoverRootErrors(t *testing.T) {
	file := writeFile(t, t.TempDir(), "file.txt", "x", 0o644)

	for name, root := range map[string]string{
		"empty":         "",
		"missing":       filepath.Join(t.TempDir(), "missing"),
		"not directory": file,
	} {
		t.Run(name, func(t *testing.T) {
			d, err := NewDiscovery(root)
			require.NoError(t, err)
			_, err = d.Discover(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRootNotFound))
		})
	}
}

func TestDiscoverNoDescriptors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".curated/notes/README.md", "# notes\n", 0o644)

	d, err := NewDiscovery(root)
	require.NoError(t, err)
	found, err := d.Discover(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRootNotFound)
	assert.Contains(t, err.Error(), "no SKILL.md below")
	assert.Nil(t, found)
}

func TestDiscoverCancelled(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, ".curated/a", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := NewDiscovery(root)
	require.NoError(t, err)
	_, err = d.Discover(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
