package skills

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultTestsDir is the companion test directory relative to the repository root
const DefaultTestsDir = "tests/skills"

// TestFileName returns the companion test file name for a skill name
func TestFileName(name string) string {
	return "test_" + strings.ReplaceAll(name, "-", "_") + ".py"
}

// CheckTestPresence confirms a script-backed skill has its companion test in
// testsDir. A missing test is an error for curated skills and a warning elsewhere.
func CheckTestPresence(skill Skill, name, testsDir string) []Issue {
	if !skill.ScriptBacked() {
		return nil
	}
	if name == "" {
		name = skill.DirName()
	}

	expected := filepath.Join(testsDir, TestFileName(name))
	if info, err := os.Stat(expected); err == nil && info.Mode().IsRegular() {
		return nil
	}

	if skill.Tier == TierCurated {
		return []Issue{newError(KindPresence, expected, "missing companion test for %s skill %s", skill.Tier, name)}
	}
	return []Issue{newWarning(KindPresence, expected, "missing companion test for %s skill %s", skill.Tier, name)}
}
