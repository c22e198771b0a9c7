package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertTools_MapsInputSchemaToParameters(t *testing.T) {
	tr := testTranslator(t)

	out, err := tr.convertTools([]AnthropicTool{{
		Name:        "lookup",
		Description: "looks things up",
		InputSchema: map[string]interface{}{"type": "object"},
	}})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "function", out[0]["type"])
	function := out[0]["function"].(map[string]interface{})
	assert.Equal(t, "lookup", function["name"])
	assert.Equal(t, "looks things up", function["description"])
}

func TestConvertToolChoice_MapsAnyToRequired(t *testing.T) {
	tr := testTranslator(t)

	out, err := tr.convertToolChoice("any")

	require.NoError(t, err)
	assert.Equal(t, "required", out)
}

func TestConvertToolChoice_MapsSpecificToolSelection(t *testing.T) {
	tr := testTranslator(t)

	out, err := tr.convertToolChoice(map[string]interface{}{"type": "tool", "name": "lookup"})

	require.NoError(t, err)
	function := out.(map[string]interface{})["function"].(map[string]interface{})
	assert.Equal(t, "lookup", function["name"])
}

func TestConvertToolChoice_ToolWithoutNameErrors(t *testing.T) {
	tr := testTranslator(t)

	_, err := tr.convertToolChoice(map[string]interface{}{"type": "tool"})

	assert.Error(t, err)
}
