package typing

import "github.com/pkg/errors"

// CheckCompatible checks whether a value of type `actual` can be used where a
// value of type `expected` is required: assigned to a variable, passed to a
// value parameter or returned from a function.  It returns an error naming
// both types if it cannot.
func CheckCompatible(expected, actual Type) error {
	return checkCompatible(expected, actual, false)
}

// Compatible returns whether a value of type `actual` can be used where a value
// of type `expected` is required.
func Compatible(expected, actual Type) bool {
	return checkCompatible(expected, actual, false) == nil
}

func checkCompatible(expected, actual Type, isPtr bool) error {
	if expected == nil || actual == nil {
		return errors.New("type mismatch.")
	}

	if expected == actual || SameName(expected, actual) {
		return nil
	}

	ek, ak := expected.Kind(), actual.Kind()
	if ek == KindAnyType || ak == KindAnyType {
		return nil
	}

	switch {
	case IsNumeric(expected) && IsNumeric(actual):
		if numericCompatible(expected, actual) {
			return nil
		}

		if (IsInteger(expected) && IsInteger(actual)) || (IsReal(expected) && IsReal(actual)) {
			return errors.Errorf("type mismatch: converting from %s to %s may lose data.",
				Format(actual), Format(expected))
		}
	case ek == KindArray:
		et := expected.(*ArrayType)

		if at, ok := actual.(*ArrayType); ok {
			if arrayCompatible(et, at) {
				return nil
			}

			if et.Member().Kind() != KindAnyType && et.Dimensions() != at.Dimensions() {
				return errors.Errorf("type mismatch: incompatible array dimensions, expected %s, found %s.",
					mismatchRepr(expected, isPtr), mismatchRepr(actual, isPtr))
			}
		} else if (ak == KindString || ak == KindChar) && IsCharArray(et) {
			return nil
		}
	case ek == KindRecord:
		if rt, ok := actual.(*RecordType); ok && rt.Extends(expected) {
			return nil
		}
	case ek == KindPointer:
		if ak == KindNilType {
			return nil
		}

		if ap, ok := actual.(*PointerType); ok {
			ep := expected.(*PointerType)
			if ep.Base == nil || ap.Base == nil {
				break
			}

			if Extends(ap.Base, ep.Base) {
				return nil
			}

			return checkCompatible(ep.Base, ap.Base, true)
		}
	case ek == KindProcedure:
		if ak == KindNilType {
			return nil
		}

		if ap, ok := actual.(*ProcedureType); ok && Equal(expected, ap) {
			return nil
		}
	case ek == KindString:
		if ak == KindChar {
			return nil
		}
	}

	return errors.Errorf("type mismatch: expected %s, found %s.",
		mismatchRepr(expected, isPtr), mismatchRepr(actual, isPtr))
}

func mismatchRepr(t Type, isPtr bool) string {
	if isPtr {
		return "POINTER TO " + Format(t)
	}

	return Format(t)
}

// numericCompatible implements the numeric promotion rule: a numeric value is
// compatible with a virtual category it belongs to, and with a type of the
// same category (integer or real) that is at least as large.
func numericCompatible(expected, actual Type) bool {
	switch expected.Kind() {
	case KindNumeric:
		return true
	case KindEntire:
		return IsInteger(actual)
	case KindFloating:
		return IsReal(actual)
	}

	switch actual.Kind() {
	case KindEntire:
		return IsInteger(expected)
	case KindFloating:
		return IsReal(expected)
	}

	if IsInteger(expected) && IsInteger(actual) || IsReal(expected) && IsReal(actual) {
		return expected.Size() >= actual.Size()
	}

	return false
}

func arrayCompatible(expected, actual *ArrayType) bool {
	if expected.Member().Kind() == KindAnyType {
		return true
	}

	if expected.Dimensions() != actual.Dimensions() {
		return false
	}

	for i, length := range expected.Lengths {
		if length != 0 && length != actual.Lengths[i] {
			return false
		}
	}

	return Equal(expected.Member(), actual.Member())
}

// -----------------------------------------------------------------------------

// Equal returns whether two types are structurally equal: identical, the same
// named type, or anonymous types constructed from equal components.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a == b || SameName(a, b) {
		return true
	}

	if !IsAnonymous(a) && !IsAnonymous(b) {
		return false
	}

	switch va := a.(type) {
	case *ArrayType:
		if vb, ok := b.(*ArrayType); ok && len(va.Lengths) == len(vb.Lengths) {
			for i, length := range va.Lengths {
				if length != vb.Lengths[i] {
					return false
				}
			}

			return Equal(va.Member(), vb.Member())
		}
	case *PointerType:
		if vb, ok := b.(*PointerType); ok {
			if va.Base == nil || vb.Base == nil {
				return va.Base == vb.Base
			}

			return Equal(va.Base, vb.Base)
		}
	case *ProcedureType:
		if vb, ok := b.(*ProcedureType); ok {
			if len(va.Params) != len(vb.Params) || va.VarArgs != vb.VarArgs {
				return false
			}

			for i, param := range va.Params {
				if param.Var != vb.Params[i].Var || !Equal(param.Type, vb.Params[i].Type) {
					return false
				}
			}

			return Equal(va.Return, vb.Return)
		}
	}

	return false
}

// -----------------------------------------------------------------------------

// CommonType returns the type of the result of a binary operation on operands
// of type `lhs` and `rhs` before relational operators are applied.  It returns
// nil if the types have no common type.
func CommonType(lhs, rhs Type) Type {
	if lhs == nil || rhs == nil {
		return nil
	}

	if lhs == rhs || Equal(lhs, rhs) {
		return lhs
	}

	lk, rk := lhs.Kind(), rhs.Kind()
	switch {
	case IsNumeric(lhs) && IsNumeric(rhs):
		// a real operand always wins over an integer operand
		if IsReal(lhs) && IsInteger(rhs) {
			return lhs
		} else if IsInteger(lhs) && IsReal(rhs) {
			return rhs
		}

		if lhs.Size() > rhs.Size() {
			return lhs
		}

		return rhs
	case lk == KindChar && rk == KindString:
		return rhs
	case lk == KindString && rk == KindChar:
		return lhs
	case lk == KindNilType:
		return rhs
	case rk == KindNilType:
		return lhs
	case lk == KindPointer && rk == KindPointer, lk == KindRecord && rk == KindRecord:
		if Extends(lhs, rhs) {
			return rhs
		} else if Extends(rhs, lhs) {
			return lhs
		}
	}

	return nil
}
