package blueprint

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperty_JSONKeepsScalarTypes(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"int", 3},
		{"int8", int8(-4)},
		{"int64", int64(1) << 60},
		{"uint16", uint16(65535)},
		{"uint64", uint64(1) << 63},
		{"float32", float32(0.25)},
		{"float64", 1.5},
		{"bool", true},
		{"string", "hello"},
		{"bytes", []byte{0, 1, 255}},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(Property{Name: "p", Value: tt.value})
			require.NoError(t, err)

			var got Property
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, "p", got.Name)
			assert.Equal(t, tt.value, got.Value)
		})
	}
}

func TestProperty_JSONUntyped(t *testing.T) {
	var got Properties
	require.NoError(t, json.Unmarshal([]byte(`[{"name":"n","value":3},{"name":"m","value":{"a":[1]}}]`), &got))

	n, _ := got.Get("n")
	assert.Equal(t, float64(3), n)
	m, _ := got.Get("m")
	assert.Equal(t, map[string]any{"a": []any{float64(1)}}, m)
}

func TestProperty_JSONRejectsUnknownType(t *testing.T) {
	var got Property
	err := json.Unmarshal([]byte(`{"name":"n","type":"complex128","value":1}`), &got)
	assert.ErrorContains(t, err, "unknown type")

	err = json.Unmarshal([]byte(`{"name":"n","type":"int","value":"x"}`), &got)
	assert.Error(t, err)
}
