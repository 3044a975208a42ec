package typing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func concreteNumerics(c *Context) []*BasicType {
	return []*BasicType{c.Byte, c.ShortInt, c.Integer, c.LongInt, c.Real, c.LongReal}
}

func TestNumericCompatibility(t *testing.T) {
	c := NewContext()

	for _, a := range concreteNumerics(c) {
		for _, b := range concreteNumerics(c) {
			sameCategory := IsInteger(a) == IsInteger(b)
			want := sameCategory && a.Size() >= b.Size()

			assert.Equal(t, want, Compatible(a, b), "compatible(%s, %s)", a.Repr(), b.Repr())
		}
	}
}

func TestVirtualCategoryCompatibility(t *testing.T) {
	c := NewContext()

	assert.True(t, Compatible(c.Entire, c.LongInt))
	assert.True(t, Compatible(c.Floating, c.Real))
	assert.True(t, Compatible(c.Numeric, c.ShortInt))
	assert.False(t, Compatible(c.Entire, c.Real))
	assert.True(t, Compatible(c.AnyType, c.Boolean))
	assert.True(t, Compatible(c.Set, c.AnyType))
}

func TestVirtualKinds(t *testing.T) {
	c := NewContext()

	for _, vt := range []Type{c.AnyType, c.Entire, c.Floating, c.Numeric} {
		assert.True(t, IsVirtual(vt), "%s", Format(vt))
	}

	assert.False(t, IsVirtual(c.NoType))
	assert.False(t, IsVirtual(c.NilType))
	assert.False(t, IsVirtual(c.Integer))
	assert.False(t, IsVirtualKind(KindRecord))
}

func TestNarrowingMessage(t *testing.T) {
	c := NewContext()

	err := CheckCompatible(c.Integer, c.LongInt)
	require.Error(t, err)
	assert.Equal(t, "type mismatch: converting from LONGINT to INTEGER may lose data.", err.Error())

	err = CheckCompatible(c.Boolean, c.Char)
	require.Error(t, err)
	assert.Equal(t, "type mismatch: expected BOOLEAN, found CHAR.", err.Error())
}

func TestStructuredCompatibility(t *testing.T) {
	c := NewContext()

	a10 := c.ArrayOf([]int{10}, c.Integer)
	a20 := c.ArrayOf([]int{20}, c.Integer)
	open := c.ArrayOf([]int{0}, c.Integer)
	anyArr := c.ArrayOf([]int{0}, c.AnyType)

	assert.Same(t, a10, c.ArrayOf([]int{10}, c.Integer))
	assert.True(t, Compatible(open, a10))
	assert.False(t, Compatible(a10, a20))
	assert.True(t, Compatible(anyArr, c.ArrayOf([]int{3, 4}, c.Char)))
	assert.True(t, Compatible(c.ArrayOf([]int{8}, c.Char), c.String))

	base := c.Declare(c.NewRecord(nil, []*Field{{Name: "x", Type: c.Integer}}), "M", "Base").(*RecordType)
	ext := c.Declare(c.NewRecord(base, []*Field{{Name: "y", Type: c.Real}}), "M", "Ext").(*RecordType)

	assert.True(t, Compatible(base, ext))
	assert.False(t, Compatible(ext, base))
	assert.Equal(t, 1, ext.Level)
	assert.Equal(t, 1, ext.Field("y").Index)
	assert.Same(t, base.Fields[0], ext.Field("x"))
	assert.Equal(t, 8, ext.Size())
	assert.Equal(t, 4, ext.Offset(ext.Field("y")))

	pBase := c.PointerTo(base)
	pExt := c.PointerTo(ext)
	assert.True(t, Compatible(pBase, pExt))
	assert.False(t, Compatible(pExt, pBase))
	assert.True(t, Compatible(pExt, c.NilType))
	assert.False(t, Compatible(c.Integer, c.NilType))
}

func TestCommonTypeReflexive(t *testing.T) {
	c := NewContext()

	rec := c.NewRecord(nil, []*Field{{Name: "f", Type: c.Char}})
	types := []Type{
		c.Boolean, c.Byte, c.Char, c.ShortInt, c.Integer, c.LongInt, c.Real,
		c.LongReal, c.Set, c.String, c.NilType,
		c.ArrayOf([]int{4, 4}, c.Real),
		rec,
		c.PointerTo(rec),
		c.NewProcedure([]*Param{{Name: "x", Type: c.Integer}}, c.Boolean, false),
	}

	for _, typ := range types {
		assert.Same(t, typ, CommonType(typ, typ), "commonType(%s, %s)", typ.Repr(), typ.Repr())
	}
}

func TestCommonTypeNumeric(t *testing.T) {
	c := NewContext()

	assert.Same(t, c.LongInt, CommonType(c.Integer, c.LongInt))
	assert.Same(t, c.Real, CommonType(c.LongInt, c.Real))
	assert.Same(t, c.LongReal, CommonType(c.LongReal, c.Integer))
	assert.Same(t, c.String, CommonType(c.Char, c.String))
	assert.Nil(t, CommonType(c.Boolean, c.Integer))

	ptr := c.PointerTo(c.NewRecord(nil, nil))
	assert.Same(t, ptr, CommonType(c.NilType, ptr))
}

func TestDeclareCopiesInternedTypes(t *testing.T) {
	c := NewContext()

	anon := c.ArrayOf([]int{10}, c.Integer)
	named := c.Declare(anon, "M", "Vector")

	assert.NotSame(t, anon, named)
	assert.Equal(t, "Vector", named.Name())
	assert.Equal(t, "", anon.Name())
	assert.Equal(t, "ARRAY 10 OF INTEGER", anon.Repr())

	// aliasing a named type yields the type itself
	assert.Same(t, named, c.Declare(named, "M", "Alias"))
}

func TestFormat(t *testing.T) {
	c := NewContext()

	assert.Equal(t, "ARRAY 3 OF ARRAY OF CHAR", (&ArrayType{Lengths: []int{3, 0}, Types: []Type{c.ArrayOf([]int{0}, c.Char), c.Char}}).Repr())
	assert.Equal(t, "POINTER TO RECORD", c.PointerTo(c.NewRecord(nil, nil)).Repr())
	assert.Equal(t, "PROCEDURE (VAR INTEGER, REAL): BOOLEAN",
		c.NewProcedure([]*Param{{Var: true, Type: c.Integer}, {Type: c.Real}}, c.Boolean, false).Repr())
	assert.Equal(t, "undefined type", Format(nil))
}

func TestDispatch(t *testing.T) {
	c := NewContext()

	x := c.NewProcedure([]*Param{{Type: c.Integer}}, c.Boolean, false)
	y := c.NewProcedure([]*Param{{Type: c.Real}}, c.Char, false)

	assert.Same(t, x, Dispatch([]*ProcedureType{x, y}, []Type{c.Integer}, nil, false))
	assert.Same(t, y, Dispatch([]*ProcedureType{x, y}, []Type{c.Real}, nil, false))
	assert.Nil(t, Dispatch([]*ProcedureType{x, y}, []Type{c.Boolean}, nil, false))

	// equally scored virtual matches are ambiguous
	e := c.NewProcedure([]*Param{{Type: c.Entire}}, c.Boolean, false)
	n := c.NewProcedure([]*Param{{Type: c.Numeric}}, c.Char, false)
	winners, score := Candidates([]*ProcedureType{e, n}, []Type{c.LongInt})
	assert.Len(t, winners, 2)
	assert.Equal(t, 1, score)
	assert.Nil(t, Dispatch([]*ProcedureType{e, n}, []Type{c.LongInt}, nil, false))

	// exact identity beats a virtual match
	assert.Same(t, x, Dispatch([]*ProcedureType{n, x}, []Type{c.Integer}, nil, false))
}

func TestDispatchCast(t *testing.T) {
	c := NewContext()

	sig := c.NewProcedure([]*Param{{Type: c.TypeT}}, c.TypeT, false)
	res := Dispatch([]*ProcedureType{sig}, []Type{c.TypeT}, c.LongInt, true)

	require.NotNil(t, res)
	assert.Same(t, c.LongInt, res.Return)
	assert.Same(t, c.TypeT, sig.Return)
}

func TestMatchType(t *testing.T) {
	c := NewContext()

	assert.Equal(t, 2, MatchType(c.Integer, c.Integer))
	assert.Equal(t, 1, MatchType(c.Entire, c.ShortInt))
	assert.Equal(t, 1, MatchType(c.Floating, c.LongReal))
	assert.Equal(t, 1, MatchType(c.Numeric, c.Real))
	assert.Equal(t, 1, MatchType(c.AnyType, c.Set))
	assert.Equal(t, 0, MatchType(c.Integer, c.LongInt))
	assert.Equal(t, 0, MatchType(c.Floating, c.Integer))
}

func TestIntType(t *testing.T) {
	c := NewContext()

	assert.Same(t, c.Integer, c.IntType(7))
	assert.Same(t, c.Integer, c.IntType(2147483647))
	assert.Same(t, c.LongInt, c.IntType(2147483648))
	assert.Same(t, c.Integer, c.IntType(-2147483648))
}

func TestFits(t *testing.T) {
	c := NewContext()

	assert.True(t, Fits(c.Byte, 255))
	assert.False(t, Fits(c.Byte, -1))
	assert.True(t, Fits(c.ShortInt, -32768))
	assert.False(t, Fits(c.ShortInt, 32768))
	assert.True(t, Fits(c.LongInt, 1<<40))
	assert.False(t, Fits(c.Real, 1))
}
