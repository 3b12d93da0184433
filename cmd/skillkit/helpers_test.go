package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/stretchr/testify/require"
)

// writeSkill creates a minimal well-formed skill at root/rel named after its directory
func writeSkill(t *testing.T, root, rel, name string) string {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "references"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "references", "REFERENCE.md"), []byte("# Reference\n"), 0o644))

	content := fmt.Sprintf("---\nname: %s\ndescription: Does %s things.\n---\n\n# %s\n", name, name, name)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644))
	return dir
}

// writeCompanionTest creates the companion test for name under repoRoot/tests/skills
func writeCompanionTest(t *testing.T, repoRoot, file string) {
	t.Helper()
	dir := filepath.Join(repoRoot, "tests", "skills")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte("def test_placeholder():\n    pass\n"), 0o644))
}

func newBufferedPresenter() (*presenter.TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	var output, errorOutput bytes.Buffer
	return presenter.NewWithOptions(&output, &errorOutput, presenter.ColorNever), &output, &errorOutput
}
