package skills

import "fmt"

// Level is the severity of a validation finding
type Level string

// Level constants
const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// IssueKind classifies where a finding came from
type IssueKind string

// IssueKind constants
const (
	KindStructural IssueKind = "structural" // malformed or missing front matter, layout problems
	KindNaming     IssueKind = "naming"     // name pattern, length, identity and duplicate violations
	KindContract   IssueKind = "contract"   // entry script contract violations
	KindPresence   IssueKind = "presence"   // missing companion test file
)

// Issue is a single validation finding. Issues are values and are never
// mutated once created.
type Issue struct {
	Level   Level     `json:"level"`
	Path    string    `json:"path"`
	Message string    `json:"message"`
	Kind    IssueKind `json:"-"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Level, i.Path, i.Message)
}

func newError(kind IssueKind, path, format string, args ...any) Issue {
	return Issue{Level: LevelError, Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)}
}

func newWarning(kind IssueKind, path, format string, args ...any) Issue {
	return Issue{Level: LevelWarning, Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)}
}

// CountLevels returns the number of errors and warnings in issues
func CountLevels(issues []Issue) (errs, warnings int) {
	for _, issue := range issues {
		switch issue.Level {
		case LevelError:
			errs++
		case LevelWarning:
			warnings++
		}
	}
	return errs, warnings
}
