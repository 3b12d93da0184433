package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:       "schema [script|report]",
	Short:     "Print a JSON Schema",
	Long:      `Print the JSON Schema of the entry script --json output (script, the default) or of the validate --json report (report).`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"script", "report"},
	Run: func(_ *cobra.Command, args []string) {
		kind := "script"
		if len(args) == 1 {
			kind = args[0]
		}
		if err := writeSchema(os.Stdout, kind); err != nil {
			presenter.Error(err, "Failed to print schema")
			exit(1)
		}
	},
}

func writeSchema(w io.Writer, kind string) error {
	var schema any
	switch kind {
	case "script":
		schema = skills.ScriptOutputSchema()
	case "report":
		schema = skills.ReportSchema()
	default:
		return errors.Errorf("unknown schema %q, must be one of: script, report", kind)
	}

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal schema")
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
