package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultFor(t *testing.T) {
	tests := []struct {
		tag  string
		want V
	}{
		{"int", Int(0)},
		{"Integer", Int(0)},
		{"float", Float(0)},
		{"str", Text("")},
		{"String", Text("")},
		{"bool", Bool(false)},
		{"Boolean", Bool(false)},
		{"vector2", FromVec2(Vec2{})},
		{"vector3", FromVec3(Vec3{})},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := DefaultFor(tt.tag)
			require.NoError(t, err)
			require.True(t, got.Equal(tt.want))
		})
	}
}

func TestDefaultForUnknown(t *testing.T) {
	_, err := DefaultFor("quaternion")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestDefaultForRejectsUppercaseTail(t *testing.T) {
	// Only the first character may vary in case; "INTEGER" is not "Integer".
	_, err := DefaultFor("INTEGER")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestParseValueRoundTrip(t *testing.T) {
	values := []V{
		Int(42),
		Float(3.5),
		Text("hero"),
		Bool(true),
		FromVec2(Vec2{X: 1, Y: 2}),
		FromVec3(Vec3{X: 1, Y: 2, Z: 3}),
	}
	for _, v := range values {
		doc := Serialize(v)
		got, err := ParseValue(doc, v.Kind().String())
		require.NoError(t, err)
		require.True(t, got.Equal(v), "round trip mismatch for %v: got %v", v, got)
	}
}

func TestParseValueShapeMismatch(t *testing.T) {
	_, err := ParseValue("nope", "int")
	require.ErrorIs(t, err, ErrValueShape)

	_, err = ParseValue([]any{1.0}, "vector2")
	require.ErrorIs(t, err, ErrValueShape)

	_, err = ParseValue(1.0, "str")
	require.ErrorIs(t, err, ErrValueShape)
}

func TestVec2Operators(t *testing.T) {
	a := Vec2{X: 3, Y: 4}
	b := Vec2{X: 1, Y: 0}

	require.Equal(t, Vec2{X: 4, Y: 4}, a.Add(b))
	require.Equal(t, Vec2{X: 2, Y: 4}, a.Sub(b))
	require.InDelta(t, float64(3), a.Dot(b), 1e-6)
	require.InDelta(t, float64(5), a.Norm(), 1e-6)

	unit := a.Normalize()
	require.InDelta(t, 1.0, float64(unit.Norm()), 1e-5)

	proj := a.ProjectOnto(b)
	require.InDelta(t, 3.0, float64(proj.X), 1e-5)
	require.InDelta(t, 0.0, float64(proj.Y), 1e-5)
}

func TestVec2AngleBetweenClampsDomain(t *testing.T) {
	a := Vec2{X: 1, Y: 0}
	angle := a.AngleBetween(a)
	require.InDelta(t, 0.0, float64(angle), 1e-4)

	opposite := Vec2{X: -1, Y: 0}
	angle = a.AngleBetween(opposite)
	require.InDelta(t, math.Pi, float64(angle), 1e-4)
}

func TestVec2NormalizeZeroDoesNotPanic(t *testing.T) {
	require.NotPanics(t, func() {
		_ = Vec2{}.Normalize()
	})
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{X: 1}
	y := Vec3{Y: 1}
	z := x.Cross(y)
	require.Equal(t, Vec3{Z: 1}, z)
}

func TestVec3NormalizeZeroDoesNotPanic(t *testing.T) {
	require.NotPanics(t, func() {
		_ = Vec3{}.Normalize()
	})
}
