package skills

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Mode selects how deeply skills are validated
type Mode string

// Validation modes
const (
	ModeFast Mode = "fast" // static checks only, never spawns subprocesses
	ModeExec Mode = "exec" // static checks plus entry script contract checks
)

// ParseMode converts a string into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFast, ModeExec:
		return Mode(s), nil
	default:
		return "", errors.Errorf("invalid mode %q, must be one of: fast, exec", s)
	}
}

// SkillReport holds every finding for one discovered skill
type SkillReport struct {
	SkillDir     string  `json:"skill_dir"`
	Tier         string  `json:"tier"`
	Name         string  `json:"name,omitempty"`
	Description  string  `json:"description,omitempty"`
	ScriptBacked bool    `json:"script_backed"`
	Issues       []Issue `json:"issues"`
}

// RunSummary is the totals line of a validation run
type RunSummary struct {
	OK            bool `json:"ok"`
	SkillsChecked int  `json:"skills_checked"`
	Errors        int  `json:"errors"`
	Warnings      int  `json:"warnings"`
	Mode          Mode `json:"mode"`
	// Partial is set when the run was cancelled before every skill was checked
	Partial bool `json:"partial,omitempty"`
}

// RunReport is the complete output of a validation run
type RunReport struct {
	Summary RunSummary    `json:"summary"`
	Reports []SkillReport `json:"reports"`
}

// Aggregate merges per-skill reports into a RunReport. The run is ok when
// there are no errors and, with failOnWarn, no warnings either.
func Aggregate(reports []SkillReport, mode Mode, failOnWarn bool) *RunReport {
	summary := RunSummary{Mode: mode, SkillsChecked: len(reports)}
	normalized := make([]SkillReport, 0, len(reports))

	for _, report := range reports {
		if report.Issues == nil {
			report.Issues = []Issue{}
		}
		errs, warnings := CountLevels(report.Issues)
		summary.Errors += errs
		summary.Warnings += warnings
		normalized = append(normalized, report)
	}

	summary.OK = summary.Errors == 0 && (!failOnWarn || summary.Warnings == 0)
	return &RunReport{Summary: summary, Reports: normalized}
}

// ExitStatus returns the process exit code for the run: 0 when ok, 1 otherwise
func (r *RunReport) ExitStatus() int {
	if r.Summary.OK {
		return 0
	}
	return 1
}

// WriteJSON writes the report as a single indented JSON object
func (r *RunReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(r), "failed to encode report")
}
