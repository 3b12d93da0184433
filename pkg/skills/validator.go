package skills

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxDescriptionLength is the description length above which a warning is raised
const MaxDescriptionLength = 500

const (
	referencesDir = "references"
	assetsDir     = "assets"
)

// ValidateStatic runs every check that needs only the filesystem: front matter
// parsing, name identity and pattern, description constraints, recommended
// sub-directories and body links. Cross-tree name uniqueness is not checked
// here, see NameRegistry.
func ValidateStatic(skill Skill, parse MetadataParser) (*Metadata, []Issue) {
	if parse == nil {
		parse = ParseMetadata
	}

	var issues []Issue
	meta, body := loadMetadata(skill, parse, &issues)

	if meta != nil {
		issues = append(issues, checkNameIdentity(skill, meta)...)
		issues = append(issues, checkDescription(skill, meta)...)
		issues = append(issues, CheckBodyLinks(skill, body)...)
	}
	issues = append(issues, checkLayout(skill)...)

	return meta, issues
}

func loadMetadata(skill Skill, parse MetadataParser, issues *[]Issue) (*Metadata, []byte) {
	content, err := os.ReadFile(skill.DescriptorPath)
	if err != nil {
		*issues = append(*issues, newError(KindStructural, skill.DescriptorPath, "failed to read %s: %v", skillFileName, err))
		return nil, nil
	}

	meta, err := parse(content)
	if err != nil {
		*issues = append(*issues, newError(KindStructural, skill.DescriptorPath, "%v", err))
		return nil, nil
	}

	_, body, _ := SplitFrontMatter(content)
	return meta, []byte(body)
}

func checkNameIdentity(skill Skill, meta *Metadata) []Issue {
	var issues []Issue
	if meta.Name != skill.DirName() {
		issues = append(issues, newError(KindNaming, skill.DescriptorPath,
			"name mismatch: declared %q but directory is %q", meta.Name, skill.DirName()))
	}
	for _, problem := range CheckName(meta.Name) {
		issues = append(issues, newError(KindNaming, skill.DescriptorPath, "invalid name %q: %s", meta.Name, problem))
	}
	return issues
}

func checkDescription(skill Skill, meta *Metadata) []Issue {
	description := strings.TrimSpace(meta.Description)
	if description == "" {
		return []Issue{newError(KindStructural, skill.DescriptorPath, "description must not be empty")}
	}

	var issues []Issue
	if strings.Contains(description, "\n") {
		issues = append(issues, newWarning(KindStructural, skill.DescriptorPath, "description spans multiple lines"))
	}
	if n := utf8.RuneCountInString(description); n > MaxDescriptionLength {
		issues = append(issues, newWarning(KindStructural, skill.DescriptorPath,
			"description is %d characters, recommended maximum is %d", n, MaxDescriptionLength))
	}
	return issues
}

func checkLayout(skill Skill) []Issue {
	var issues []Issue

	refs := filepath.Join(skill.Dir, referencesDir)
	switch present, empty := dirState(refs); {
	case !present:
		issues = append(issues, newWarning(KindStructural, refs, "missing %s/ directory", referencesDir))
	case empty:
		issues = append(issues, newWarning(KindStructural, refs, "%s/ directory is empty", referencesDir))
	}

	assets := filepath.Join(skill.Dir, assetsDir)
	if present, empty := dirState(assets); present && empty {
		issues = append(issues, newWarning(KindStructural, assets, "%s/ directory is empty", assetsDir))
	}

	return issues
}

// dirState reports whether path is a directory and whether it has no entries
func dirState(path string) (present, empty bool) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false, false
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return true, false
	}
	return true, len(entries) == 0
}
