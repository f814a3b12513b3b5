// Package value implements the closed-sum value type V used for every
// component field: int, float, string, bool, vec2 and vec3, plus the
// parsing and serialization that bridges it to JSON/YAML documents.
package value

import (
	"fmt"
	"math"
)

// Kind identifies which variant of V is populated.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindBool
	KindVec2
	KindVec3
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindVec2:
		return "vector2"
	case KindVec3:
		return "vector3"
	default:
		return "unknown"
	}
}

// Vec2 is a two-component float vector with the algebraic operators the
// spec requires exposed on component field values.
type Vec2 struct {
	X, Y float32
}

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Dot(b Vec2) float32 { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Scale(s float32) Vec2 { return Vec2{a.X * s, a.Y * s} }

func (a Vec2) Norm() float32 {
	return float32(math.Sqrt(float64(a.X*a.X + a.Y*a.Y)))
}

// Normalize returns a unit vector in the direction of a. On a zero-norm
// vector the result's components are whatever IEEE-754 division by zero
// produces (Inf or NaN); callers must not assume a crash is impossible to
// avoid, and none occurs.
func (a Vec2) Normalize() Vec2 {
	n := a.Norm()
	return Vec2{a.X / n, a.Y / n}
}

// AngleBetween returns the angle in radians between a and b, with the
// cosine clamped to [-1, 1] before acos to guard against float rounding
// pushing it just outside the domain.
func (a Vec2) AngleBetween(b Vec2) float32 {
	cos := a.Dot(b) / (a.Norm() * b.Norm())
	return float32(math.Acos(clamp(float64(cos), -1, 1)))
}

// ProjectOnto returns the projection of a onto b.
func (a Vec2) ProjectOnto(b Vec2) Vec2 {
	n := b.Norm()
	return b.Scale(a.Dot(b) / (n * n))
}

// Vec3 is a three-component float vector, Vec2 plus cross product.
type Vec3 struct {
	X, Y, Z float32
}

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Dot(b Vec3) float32 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) Scale(s float32) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func (a Vec3) Norm() float32 {
	return float32(math.Sqrt(float64(a.X*a.X + a.Y*a.Y + a.Z*a.Z)))
}

func (a Vec3) Normalize() Vec3 {
	n := a.Norm()
	return Vec3{a.X / n, a.Y / n, a.Z / n}
}

func (a Vec3) AngleBetween(b Vec3) float32 {
	cos := a.Dot(b) / (a.Norm() * b.Norm())
	return float32(math.Acos(clamp(float64(cos), -1, 1)))
}

func (a Vec3) ProjectOnto(b Vec3) Vec3 {
	n := b.Norm()
	return b.Scale(a.Dot(b) / (n * n))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// V is the tagged variant over {int, float, string, bool, vec2, vec3}.
// The zero value is an Int(0); callers should construct V with one of the
// typed constructors below rather than a literal.
type V struct {
	kind Kind
	i    int32
	f    float32
	s    string
	b    bool
	v2   Vec2
	v3   Vec3
}

func Int(i int32) V     { return V{kind: KindInt, i: i} }
func Float(f float32) V { return V{kind: KindFloat, f: f} }
func Text(s string) V   { return V{kind: KindString, s: s} }
func Bool(b bool) V     { return V{kind: KindBool, b: b} }
func FromVec2(v Vec2) V { return V{kind: KindVec2, v2: v} }
func FromVec3(v Vec3) V { return V{kind: KindVec3, v3: v} }

func (v V) Kind() Kind { return v.kind }

// Any returns the concrete Go value carried by v: int32, float32, string,
// bool, Vec2 or Vec3. Typed accessors (Component.Get) type-assert on the
// result rather than re-implementing the switch on Kind.
func (v V) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindVec2:
		return v.v2
	case KindVec3:
		return v.v3
	default:
		return nil
	}
}

// Equal reports whether v and other carry the same kind and value.
func (v V) Equal(other V) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindBool:
		return v.b == other.b
	case KindVec2:
		return v.v2 == other.v2
	case KindVec3:
		return v.v3 == other.v3
	default:
		return false
	}
}

func (v V) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindVec2:
		return fmt.Sprintf("{x: %g, y: %g}", v.v2.X, v.v2.Y)
	case KindVec3:
		return fmt.Sprintf("{x: %g, y: %g, z: %g}", v.v3.X, v.v3.Y, v.v3.Z)
	default:
		return ""
	}
}

// normalizeTag case-folds only the first rune of tag, matching the
// original format where "Integer" and "integer" are both accepted but
// "INTEGER" is not (only the first character may vary in case).
func normalizeTag(tag string) string {
	if tag == "" {
		return tag
	}
	r := []rune(tag)
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] = r[0] - 'A' + 'a'
	}
	return string(r)
}

// DefaultFor returns the zero value for tag, or ErrUnknownType if tag is
// not one of the closed set.
func DefaultFor(tag string) (V, error) {
	switch normalizeTag(tag) {
	case "int", "integer":
		return Int(0), nil
	case "float":
		return Float(0), nil
	case "str", "string":
		return Text(""), nil
	case "bool", "boolean":
		return Bool(false), nil
	case "vector2":
		return FromVec2(Vec2{}), nil
	case "vector3":
		return FromVec3(Vec3{}), nil
	default:
		return V{}, fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
}

// ParseValue coerces a decoded document fragment (number, string, bool,
// or an ordered sequence of two/three numbers) into a V of the given tag.
func ParseValue(doc any, tag string) (V, error) {
	switch normalizeTag(tag) {
	case "int", "integer":
		n, ok := toFloat64(doc)
		if !ok {
			return V{}, fmt.Errorf("%w: int field requires a number, got %T", ErrValueShape, doc)
		}
		return Int(int32(n)), nil
	case "float":
		n, ok := toFloat64(doc)
		if !ok {
			return V{}, fmt.Errorf("%w: float field requires a number, got %T", ErrValueShape, doc)
		}
		return Float(float32(n)), nil
	case "str", "string":
		s, ok := doc.(string)
		if !ok {
			return V{}, fmt.Errorf("%w: string field requires a string, got %T", ErrValueShape, doc)
		}
		return Text(s), nil
	case "bool", "boolean":
		b, ok := doc.(bool)
		if !ok {
			return V{}, fmt.Errorf("%w: bool field requires a boolean, got %T", ErrValueShape, doc)
		}
		return Bool(b), nil
	case "vector2":
		nums, ok := toNumberSlice(doc)
		if !ok || len(nums) != 2 {
			return V{}, fmt.Errorf("%w: vector2 field requires a 2-element sequence of numbers", ErrValueShape)
		}
		return FromVec2(Vec2{X: float32(nums[0]), Y: float32(nums[1])}), nil
	case "vector3":
		nums, ok := toNumberSlice(doc)
		if !ok || len(nums) != 3 {
			return V{}, fmt.Errorf("%w: vector3 field requires a 3-element sequence of numbers", ErrValueShape)
		}
		return FromVec3(Vec3{X: float32(nums[0]), Y: float32(nums[1]), Z: float32(nums[2])}), nil
	default:
		return V{}, fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
}

// Serialize is the inverse of ParseValue: Serialize(v) produces a document
// fragment such that ParseValue(Serialize(v), v.Kind().String()) == v.
func Serialize(v V) any {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return float64(v.f)
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindVec2:
		return []any{float64(v.v2.X), float64(v.v2.Y)}
	case KindVec3:
		return []any{float64(v.v3.X), float64(v.v3.Y), float64(v.v3.Z)}
	default:
		return nil
	}
}

func toFloat64(doc any) (float64, bool) {
	switch n := doc.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toNumberSlice(doc any) ([]float64, bool) {
	switch seq := doc.(type) {
	case []any:
		out := make([]float64, 0, len(seq))
		for _, el := range seq {
			n, ok := toFloat64(el)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	case []float64:
		return seq, true
	case []float32:
		out := make([]float64, len(seq))
		for i, n := range seq {
			out[i] = float64(n)
		}
		return out, true
	default:
		return nil, false
	}
}
