package skills

import (
	"github.com/invopop/jsonschema"
)

// ScriptAction is a command an entry script ran while producing its report
type ScriptAction struct {
	Cmd      string `json:"cmd" jsonschema:"description=Command line that was executed"`
	Cwd      string `json:"cwd" jsonschema:"description=Working directory of the command"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
}

// ScriptOutput is the JSON object an entry script prints in --json mode.
// Only ok, summary and changed are required; unknown keys are allowed.
type ScriptOutput struct {
	OK        bool           `json:"ok" jsonschema:"description=Whether the skill's goal is met"`
	Summary   string         `json:"summary" jsonschema:"description=One line human readable result"`
	Changed   bool           `json:"changed" jsonschema:"description=Whether persistent changes were made. Must be false unless --apply was passed"`
	Actions   []ScriptAction `json:"actions,omitempty"`
	Artifacts []string       `json:"artifacts,omitempty"`
	Warnings  []string       `json:"warnings,omitempty"`
	Errors    []string       `json:"errors,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ScriptOutputSchema returns the JSON Schema of the entry script contract output
func ScriptOutputSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	return r.Reflect(&ScriptOutput{})
}

// ReportSchema returns the JSON Schema of the validator's --json report
func ReportSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true}
	return r.Reflect(&RunReport{})
}
