package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqlang/aql/ast"
)

func TestLoadManifest(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, LoadFile(r, "../testdata/devices.json"))

	temp, err := r.Lookup("thermostat", "temperature")
	require.NoError(t, err)
	assert.Equal(t, ast.Query, temp.Kind)
	// zone is a union with null: optional
	assert.Empty(t, temp.InReq)
	require.Len(t, temp.InOpt, 1)
	assert.Equal(t, ast.Arg{Name: "zone", Type: "string"}, temp.InOpt[0])
	require.Len(t, temp.Out, 3)
	assert.Equal(t, ast.Arg{Name: "value", Type: "number"}, temp.Out[0])

	stream, err := r.Lookup("thermostat", "state_changed")
	require.NoError(t, err)
	assert.Equal(t, ast.Stream, stream.Kind)

	action, err := r.Lookup("thermostat", "set_target")
	require.NoError(t, err)
	assert.Equal(t, ast.Action, action.Kind)
	// value has no default: required; mode defaults to "heat": optional
	require.Len(t, action.InReq, 1)
	assert.Equal(t, "value", action.InReq[0].Name)
	require.Len(t, action.InOpt, 1)
	assert.Equal(t, "mode", action.InOpt[0].Name)

	macro, err := r.LookupMacro("comfortable_rooms")
	require.NoError(t, err)
	assert.Equal(t, ast.Query, macro.Kind)
	assert.Len(t, macro.Out, 2)
}

func TestLoadRejectsBadManifests(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{`},
		{"missing kind", `{"channels": [{"name": "x", "type": "query"}]}`},
		{"unknown type", `{"kind": "d", "channels": [{"name": "x", "type": "webhook"}]}`},
		{
			"invalid avro schema",
			`{"kind": "d", "channels": [{"name": "x", "type": "query",
				"out": {"type": "record", "name": "X", "fields": [{"name": "f", "type": "nonsense"}]}}]}`,
		},
		{
			"union without concrete type",
			`{"kind": "d", "channels": [{"name": "x", "type": "query",
				"out": {"type": "record", "name": "X", "fields": [{"name": "f", "type": ["null"]}]}}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Load(NewRegistry(), []byte(tt.data)))
		})
	}
}

func TestLoadAvroTypeMapping(t *testing.T) {
	data := []byte(`{"kind": "d", "channels": [{"name": "x", "type": "query",
		"out": {"type": "record", "name": "X", "fields": [
			{"name": "a", "type": "long"},
			{"name": "b", "type": "bytes"},
			{"name": "c", "type": "boolean"},
			{"name": "d", "type": {"type": "array", "items": "string"}}
		]}}]}`)
	r := NewRegistry()
	require.NoError(t, Load(r, data))
	s, err := r.Lookup("d", "x")
	require.NoError(t, err)
	want := []ast.Arg{
		{Name: "a", Type: "number"},
		{Name: "b", Type: "string"},
		{Name: "c", Type: "bool"},
		{Name: "d", Type: "array"},
	}
	assert.Equal(t, want, s.Out)
}

func TestRegistryLookup(t *testing.T) {
	r := Builtin()

	s, err := r.Lookup("restaurant", "search")
	require.NoError(t, err)
	assert.True(t, s.HasInput("cuisine"))
	assert.True(t, s.HasOutput("rating"))
	assert.False(t, s.HasInput("rating"))

	_, err = r.Lookup("restaurant", "nope")
	assert.Error(t, err)
	_, err = r.LookupMacro("nope")
	assert.Error(t, err)

	assert.Contains(t, r.Functions(), "restaurant.search")
	assert.Contains(t, r.Macros(), "favorites")
}
