package component

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tailormade/ecs/internal/core/ecs/value"
)

func schemaDoc() map[string]any {
	return map[string]any{
		"name": "position",
		"data": map[string]any{
			"x": "float",
			"y": "float",
			"label": "string",
		},
	}
}

func TestNewFromSchemaDocDefaults(t *testing.T) {
	c, err := NewFromSchemaDoc(schemaDoc())
	require.NoError(t, err)
	require.Equal(t, "position", c.Name())
	require.ElementsMatch(t, []string{"x", "y", "label"}, c.Names())
	require.Equal(t, "float", c.TypeOf("x"))
	require.Equal(t, "", c.TypeOf("missing"))
	require.Equal(t, float32(0), Get[float32](c, "x"))
}

func TestNewFromSchemaDocRejectsBadShape(t *testing.T) {
	_, err := NewFromSchemaDoc(map[string]any{"name": "p"})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewFromSchemaDoc(map[string]any{"data": map[string]any{}})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSetAndGetRoundTrip(t *testing.T) {
	c, err := NewFromSchemaDoc(schemaDoc())
	require.NoError(t, err)

	c.Set("x", value.Float(3.5))
	require.Equal(t, float32(3.5), Get[float32](c, "x"))

	c.Set("label", value.Text("hero"))
	require.Equal(t, "hero", Get[string](c, "label"))
}

func TestSetUnknownFieldNoOps(t *testing.T) {
	c, err := NewFromSchemaDoc(schemaDoc())
	require.NoError(t, err)

	c.Set("nope", value.Int(1))
	require.Equal(t, "", c.TypeOf("nope"))
}

func TestSetTagMismatchNoOps(t *testing.T) {
	c, err := NewFromSchemaDoc(schemaDoc())
	require.NoError(t, err)

	c.Set("x", value.Text("not a float"))
	require.Equal(t, float32(0), Get[float32](c, "x"))
}

func TestGetMissingFieldReturnsZero(t *testing.T) {
	c, err := NewFromSchemaDoc(schemaDoc())
	require.NoError(t, err)
	require.Equal(t, 0, Get[int](c, "nonexistent"))
}

func TestGetTypeMismatchReturnsZero(t *testing.T) {
	c, err := NewFromSchemaDoc(schemaDoc())
	require.NoError(t, err)
	// x is a float field; requesting it as a string mismatches.
	require.Equal(t, "", Get[string](c, "x"))
}

func TestCloneFromIsDeepCopy(t *testing.T) {
	c, err := NewFromSchemaDoc(schemaDoc())
	require.NoError(t, err)
	c.Set("x", value.Float(1))

	clone := c.Clone()
	clone.Set("x", value.Float(2))

	require.Equal(t, float32(1), Get[float32](c, "x"))
	require.Equal(t, float32(2), Get[float32](clone, "x"))
}

func TestAddAppendsField(t *testing.T) {
	c := NewNamed("empty", map[string]Field{})
	require.NoError(t, c.Add("z", "int"))
	require.Equal(t, "int", c.TypeOf("z"))
	require.Equal(t, int32(0), Get[int32](c, "z"))
}

func TestAppendTextListsEveryField(t *testing.T) {
	c, err := NewFromSchemaDoc(schemaDoc())
	require.NoError(t, err)
	c.Set("label", value.Text("hero"))

	var buf bytes.Buffer
	require.NoError(t, c.AppendText(&buf))

	out := buf.String()
	require.Contains(t, out, "position:\n")
	require.Contains(t, out, "Name: label, Type: string, Value: hero")
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	c, err := NewFromSchemaDoc(schemaDoc())
	require.NoError(t, err)
	c.Set("x", value.Float(9.5))
	c.Set("label", value.Text("hero"))

	encoded, err := c.Serialize()
	require.NoError(t, err)

	decoded := &Component{}
	require.NoError(t, decoded.Deserialize(encoded))

	require.Equal(t, c.Name(), decoded.Name())
	require.Equal(t, float32(9.5), Get[float32](decoded, "x"))
	require.Equal(t, "hero", Get[string](decoded, "label"))
}

func TestChecksumStableAcrossFieldOrder(t *testing.T) {
	a := NewNamed("s", map[string]Field{
		"x": {Tag: "float", Value: value.Float(0)},
		"y": {Tag: "float", Value: value.Float(0)},
	})
	b := NewNamed("s", map[string]Field{
		"y": {Tag: "float", Value: value.Float(0)},
		"x": {Tag: "float", Value: value.Float(0)},
	})
	require.Equal(t, a.Checksum(), b.Checksum())

	c := NewNamed("s", map[string]Field{
		"x": {Tag: "int", Value: value.Int(0)},
		"y": {Tag: "float", Value: value.Float(0)},
	})
	require.NotEqual(t, a.Checksum(), c.Checksum())
}
