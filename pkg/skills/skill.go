// Package skills discovers skill packages, parses their SKILL.md front matter,
// validates naming and structure conventions and, in exec mode, verifies that
// each skill's entry script honours the JSON/exit-code script contract.
// Skills are directories containing a SKILL.md file with YAML front matter,
// grouped into tiers such as .curated, .experimental and .system.
package skills

import (
	"path/filepath"
	"strings"
)

const (
	skillFileName = "SKILL.md"

	// TierCurated is the highest-trust tier.
	TierCurated = "curated"
	// TierExperimental holds skills that are still being evaluated.
	TierExperimental = "experimental"
	// TierSystem holds skills shipped with the agent itself.
	TierSystem = "system"
	// TierUnclassified is used for skills that live directly under the skills root.
	TierUnclassified = "unclassified"
)

// Tiers lists the tiers a new skill can be created in
var Tiers = []string{TierCurated, TierExperimental, TierSystem}

// Skill represents a discovered skill package on disk
type Skill struct {
	Dir            string // Full path to the skill directory
	RelDir         string // Slash-separated path relative to the skills root
	Tier           string // Canonical tier, leading "." stripped
	DescriptorPath string // Full path to SKILL.md
	EntryScript    string // Full path to the entry script, empty if instruction-only
}

// DirName returns the base name of the skill directory
func (s Skill) DirName() string {
	return filepath.Base(s.Dir)
}

// ScriptBacked reports whether the skill exposes an entry script
func (s Skill) ScriptBacked() bool {
	return s.EntryScript != ""
}

// Metadata represents the YAML front matter in SKILL.md files
type Metadata struct {
	Name          string        `yaml:"name" json:"name"`
	Description   string        `yaml:"description" json:"description"`
	License       string        `yaml:"license,omitempty" json:"license,omitempty"`
	Compatibility string        `yaml:"compatibility,omitempty" json:"compatibility,omitempty"`
	Metadata      *MetadataInfo `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// MetadataInfo is the optional nested metadata block of the front matter
type MetadataInfo struct {
	Author string   `yaml:"author,omitempty" json:"author,omitempty"`
	Tags   []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// TierFromRelDir derives the canonical tier from a skill directory path
// relative to the skills root. The first path component names the tier and a
// leading "." is stripped, so ".curated/git-status" is in tier "curated".
func TierFromRelDir(relDir string) string {
	parts := strings.Split(filepath.ToSlash(relDir), "/")
	if len(parts) < 2 {
		return TierUnclassified
	}
	tier := strings.TrimLeft(parts[0], ".")
	if tier == "" {
		return TierUnclassified
	}
	return tier
}
