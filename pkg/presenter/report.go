package presenter

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/jingkaihe/skillkit/pkg/skills"
)

// Report writes a grouped, human-readable validation report to the error
// output: each skill with findings as "<dir> [<tier>]" followed by its issues
// tagged by level, then a one-line summary. Skills without issues are listed
// only when the presenter is not quiet.
func (p *TerminalPresenter) Report(report *skills.RunReport) {
	if report == nil {
		return
	}

	headerColor := color.New(color.Bold)
	for _, skill := range report.Reports {
		if len(skill.Issues) == 0 {
			if !p.quiet {
				fmt.Fprintf(p.errorOutput, "%s [%s] ok\n", skill.SkillDir, skill.Tier)
			}
			continue
		}

		headerColor.Fprintf(p.errorOutput, "%s [%s]\n", skill.SkillDir, skill.Tier)
		for _, issue := range skill.Issues {
			levelColor(issue.Level).Fprintf(p.errorOutput, "  [%s]", issue.Level)
			fmt.Fprintf(p.errorOutput, " %s: %s\n", issue.Path, issue.Message)
		}
	}

	fmt.Fprintln(p.errorOutput, summaryLine(report.Summary))
}

func levelColor(level skills.Level) *color.Color {
	if level == skills.LevelError {
		return color.New(color.FgRed, color.Bold)
	}
	return color.New(color.FgYellow)
}

func summaryLine(s skills.RunSummary) string {
	status := color.New(color.FgGreen, color.Bold).Sprint("OK")
	if !s.OK {
		status = color.New(color.FgRed, color.Bold).Sprint("FAILED")
	}

	line := fmt.Sprintf("%s: %d skill(s) checked in %s mode, %d error(s), %d warning(s)",
		status, s.SkillsChecked, s.Mode, s.Errors, s.Warnings)
	if s.Partial {
		line += " (interrupted, partial results)"
	}
	return line
}
