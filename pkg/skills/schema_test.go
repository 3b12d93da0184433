package skills

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptOutputSchema(t *testing.T) {
	schema := ScriptOutputSchema()

	for _, key := range []string{"ok", "summary", "changed", "actions", "metadata"} {
		_, ok := schema.Properties.Get(key)
		assert.True(t, ok, "missing property %s", key)
	}
	assert.Subset(t, schema.Required, []string{"ok", "summary", "changed"})
	assert.NotContains(t, schema.Required, "actions")

	data, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"additionalProperties":false`)
}

func TestReportSchema(t *testing.T) {
	schema := ReportSchema()

	_, ok := schema.Properties.Get("summary")
	assert.True(t, ok)
	_, ok = schema.Properties.Get("reports")
	assert.True(t, ok)
}
