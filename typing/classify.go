package typing

import "math"

// IsInteger returns whether the type is an integer type, including the
// virtual integer category.
func IsInteger(t Type) bool {
	switch t.Kind() {
	case KindByte, KindShortInt, KindInteger, KindLongInt, KindEntire:
		return true
	}

	return false
}

// IsReal returns whether the type is a real type, including the virtual real
// category.
func IsReal(t Type) bool {
	switch t.Kind() {
	case KindReal, KindLongReal, KindFloating:
		return true
	}

	return false
}

// IsNumeric returns whether the type is an integer or real type.
func IsNumeric(t Type) bool {
	return IsInteger(t) || IsReal(t) || t.Kind() == KindNumeric
}

// IsBasic returns whether the type is one of the built-in types.
func IsBasic(t Type) bool {
	return IsBasicKind(t.Kind())
}

// IsStructured returns whether values of the type are aggregates: arrays and
// records.
func IsStructured(t Type) bool {
	k := t.Kind()
	return k == KindArray || k == KindRecord
}

// IsVirtual returns whether the type is one of the virtual types.
func IsVirtual(t Type) bool {
	return IsVirtualKind(t.Kind())
}

func IsBoolean(t Type) bool {
	return t.Kind() == KindBoolean
}

func IsChar(t Type) bool {
	return t.Kind() == KindChar
}

func IsString(t Type) bool {
	return t.Kind() == KindString
}

func IsSet(t Type) bool {
	return t.Kind() == KindSet
}

func IsPointer(t Type) bool {
	return t.Kind() == KindPointer
}

func IsProcedure(t Type) bool {
	return t.Kind() == KindProcedure
}

func IsArray(t Type) bool {
	return t.Kind() == KindArray
}

func IsRecord(t Type) bool {
	return t.Kind() == KindRecord
}

// IsCharArray returns whether the type is a one-dimensional array of CHAR.
func IsCharArray(t Type) bool {
	if at, ok := t.(*ArrayType); ok {
		return at.Dimensions() == 1 && IsChar(at.Member())
	}

	return false
}

// Extends returns whether `t` is `base` or an extension of it.  Pointers
// extend each other through their base record types.
func Extends(t, base Type) bool {
	if t == base {
		return true
	}

	switch v := t.(type) {
	case *RecordType:
		return v.Extends(base)
	case *PointerType:
		if bp, ok := base.(*PointerType); ok && v.Base != nil && bp.Base != nil {
			return Extends(v.Base, bp.Base)
		}
	}

	return false
}

// RecordOf returns the record type of a record or a pointer to a record.  It
// returns nil for all other types.
func RecordOf(t Type) *RecordType {
	switch v := t.(type) {
	case *RecordType:
		return v
	case *PointerType:
		if rt, ok := v.Base.(*RecordType); ok {
			return rt
		}
	}

	return nil
}

// IntType returns the smallest of INTEGER and LONGINT that can hold the
// value.  It is the type of integer literals.
func (c *Context) IntType(value int64) *BasicType {
	if value >= math.MinInt32 && value <= math.MaxInt32 {
		return c.Integer
	}

	return c.LongInt
}

// Fits returns whether an integer value is representable by an integer type.
func Fits(t Type, value int64) bool {
	switch t.Kind() {
	case KindByte:
		return value >= 0 && value <= math.MaxUint8
	case KindShortInt:
		return value >= math.MinInt16 && value <= math.MaxInt16
	case KindInteger:
		return value >= math.MinInt32 && value <= math.MaxInt32
	}

	return IsInteger(t)
}
