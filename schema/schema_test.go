package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSchemaEmbedded(t *testing.T) {
	data, err := FS.ReadFile(ConfigSchema)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "object", doc["type"])
	assert.Contains(t, doc["properties"], "primary_suite")
}
