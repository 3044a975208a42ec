package typing

import "fmt"

// Context holds the types of a single compilation: the singletons of the
// basic and virtual types and the interning tables of anonymous structural
// types.  A context is created once per compilation and shared by all stages.
type Context struct {
	AnyType, NoType, NilType         *BasicType
	Entire, Floating, Numeric, TypeT *BasicType
	Boolean, Byte, Char, Set, String *BasicType
	ShortInt, Integer, LongInt       *BasicType
	Real, LongReal                   *BasicType

	basics   map[Kind]*BasicType
	arrays   map[arrayKey]*ArrayType
	pointers map[Type]*PointerType
}

type arrayKey struct {
	member  Type
	lengths string
}

// NewContext creates a new compilation context.
func NewContext() *Context {
	c := &Context{
		basics:   make(map[Kind]*BasicType),
		arrays:   make(map[arrayKey]*ArrayType),
		pointers: make(map[Type]*PointerType),
	}

	c.AnyType = c.newBasic(KindAnyType)
	c.NoType = c.newBasic(KindNoType)
	c.NilType = c.newBasic(KindNilType)
	c.Entire = c.newBasic(KindEntire)
	c.Floating = c.newBasic(KindFloating)
	c.Numeric = c.newBasic(KindNumeric)
	c.TypeT = c.newBasic(KindType)
	c.Boolean = c.newBasic(KindBoolean)
	c.Byte = c.newBasic(KindByte)
	c.Char = c.newBasic(KindChar)
	c.Set = c.newBasic(KindSet)
	c.String = c.newBasic(KindString)
	c.ShortInt = c.newBasic(KindShortInt)
	c.Integer = c.newBasic(KindInteger)
	c.LongInt = c.newBasic(KindLongInt)
	c.Real = c.newBasic(KindReal)
	c.LongReal = c.newBasic(KindLongReal)

	return c
}

func (c *Context) newBasic(kind Kind) *BasicType {
	bt := &BasicType{TypeBase: TypeBase{name: kind.String(), interned: true}, kind: kind}
	c.basics[kind] = bt
	return bt
}

// Basic returns the basic or virtual type of the given kind.  It returns nil
// for structural kinds.
func (c *Context) Basic(kind Kind) *BasicType {
	return c.basics[kind]
}

// BasicTypes returns the basic types which are predefined identifiers.
func (c *Context) BasicTypes() []*BasicType {
	return []*BasicType{
		c.Boolean, c.Byte, c.Char, c.ShortInt, c.Integer, c.LongInt,
		c.Real, c.LongReal, c.Set,
	}
}

// -----------------------------------------------------------------------------

// ArrayOf returns the interned anonymous array type with the given lengths
// and member type.  A length of zero denotes an open dimension.
func (c *Context) ArrayOf(lengths []int, member Type) *ArrayType {
	key := arrayKey{member: member, lengths: fmt.Sprint(lengths)}
	if at, ok := c.arrays[key]; ok {
		return at
	}

	at := c.newArray(lengths, member)
	at.interned = true
	c.arrays[key] = at
	return at
}

func (c *Context) newArray(lengths []int, member Type) *ArrayType {
	types := make([]Type, len(lengths))
	for i := 0; i < len(lengths)-1; i++ {
		types[i] = c.ArrayOf(lengths[i+1:], member)
	}
	types[len(lengths)-1] = member

	return &ArrayType{Lengths: append([]int(nil), lengths...), Types: types}
}

// PointerTo returns the interned anonymous pointer type to the given base.  A
// nil base yields a fresh pointer which is to be patched once the base is
// known.
func (c *Context) PointerTo(base Type) *PointerType {
	if base == nil {
		return &PointerType{}
	}

	if pt, ok := c.pointers[base]; ok {
		return pt
	}

	pt := &PointerType{Base: base}
	pt.interned = true
	c.pointers[base] = pt
	return pt
}

// NewRecord creates a new record type.  Record types are never interned: each
// record constructor yields a distinct type.  The field indices and the
// extension level are computed from the base.
func (c *Context) NewRecord(base *RecordType, fields []*Field) *RecordType {
	rt := &RecordType{Base: base}
	if base != nil {
		rt.Level = base.Level + 1
	}

	rt.SetFields(fields)
	return rt
}

// NewProcedure creates a new procedure type.
func (c *Context) NewProcedure(params []*Param, ret Type, varArgs bool) *ProcedureType {
	return &ProcedureType{Params: params, Return: ret, VarArgs: varArgs}
}

// Declare binds a name to a type as done by a type declaration and returns
// the named type.  Anonymous types that are not shared are named in place;
// interned types are copied first.  Types that already have a name are
// aliased: they are returned unchanged.
func (c *Context) Declare(t Type, module, name string) Type {
	if !IsAnonymous(t) {
		return t
	}

	tb := t.base()
	if tb.interned {
		switch v := t.(type) {
		case *ArrayType:
			na := c.newArray(v.Lengths, v.Member())
			na.name, na.module = name, module
			return na
		case *PointerType:
			return &PointerType{TypeBase: TypeBase{name: name, module: module}, Base: v.Base}
		}

		return t
	}

	tb.name, tb.module = name, module
	return t
}
