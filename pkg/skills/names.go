package skills

import (
	"regexp"
	"strings"
)

// MaxNameLength is the longest allowed skill name
const MaxNameLength = 64

var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CheckName returns a description of every way name breaks the naming rules:
// lowercase alphanumerics separated by single hyphens, 1 to 64 characters.
func CheckName(name string) []string {
	var problems []string
	if name == "" {
		return []string{"name must not be empty"}
	}
	if len(name) > MaxNameLength {
		problems = append(problems, "name must be at most 64 characters")
	}
	switch {
	case strings.Contains(name, "--"):
		problems = append(problems, "name must not contain consecutive hyphens")
	case !namePattern.MatchString(name):
		problems = append(problems, "name must be lowercase alphanumerics and single hyphens, with no leading or trailing hyphen")
	}
	return problems
}

// NameRegistry accumulates declared names across the whole tree. The first
// skill to register a name owns it; later registrations are duplicates.
type NameRegistry struct {
	owners map[string]string
}

// NewNameRegistry creates an empty registry
func NewNameRegistry() *NameRegistry {
	return &NameRegistry{owners: make(map[string]string)}
}

// Register records name for the descriptor at path. When the name is already
// taken it returns the owner's path and false.
func (r *NameRegistry) Register(name, path string) (string, bool) {
	if owner, exists := r.owners[name]; exists {
		return owner, false
	}
	r.owners[name] = path
	return "", true
}
