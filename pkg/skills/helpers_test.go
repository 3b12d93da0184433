package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFile creates path below dir with content, making parent directories
func writeFile(t *testing.T, dir, rel, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	return path
}

func descriptor(name, description string) string {
	return "---\nname: " + name + "\ndescription: " + description + "\n---\n\n# " + name + "\n"
}

// writeSkill creates a well-formed instruction skill at root/rel declaring name
func writeSkill(t *testing.T, root, rel, name string) string {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(rel))
	writeFile(t, dir, "SKILL.md", descriptor(name, "Does "+name+" things."), 0o644)
	writeFile(t, dir, "references/REFERENCE.md", "# Reference\n", 0o644)
	return dir
}

// writeScriptSkill is writeSkill plus an entry script at scripts/run
func writeScriptSkill(t *testing.T, root, rel, name, script string) string {
	t.Helper()
	dir := writeSkill(t, root, rel, name)
	writeFile(t, dir, "scripts/run", script, 0o755)
	return dir
}

func issueMessages(issues []Issue) []string {
	messages := make([]string, 0, len(issues))
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}
