package typing

// Kind is the kind tag of a type.  The numeric values of the kinds are part of
// the symbol file format: renumbering them invalidates existing symbol files.
type Kind int8

// Enumeration of type kinds.  `KindAnyType`, `KindEntire`, `KindFloating` and
// `KindNumeric` are virtual: they are only used for matching signatures of
// predefined procedures.  NOTYPE and NIL are placeholder kinds of expressions.
const (
	KindAnyType Kind = iota
	KindNoType
	KindNilType
	KindEntire
	KindFloating
	KindNumeric

	KindArray
	KindPointer
	KindProcedure
	KindRecord

	KindSet
	KindBoolean
	KindByte
	KindChar
	KindShortInt
	KindInteger
	KindLongInt
	KindReal
	KindLongReal
	KindString

	// KindType is the meta-type of type-valued arguments such as the argument
	// of `SIZE(INTEGER)`.
	KindType
)

var kindNames = [...]string{
	KindAnyType:   "ANYTYPE",
	KindNoType:    "NOTYPE",
	KindNilType:   "NIL",
	KindEntire:    "ENTIRE",
	KindFloating:  "FLOATING",
	KindNumeric:   "NUMERIC",
	KindArray:     "ARRAY",
	KindPointer:   "POINTER",
	KindProcedure: "PROCEDURE",
	KindRecord:    "RECORD",
	KindSet:       "SET",
	KindBoolean:   "BOOLEAN",
	KindByte:      "BYTE",
	KindChar:      "CHAR",
	KindShortInt:  "SHORTINT",
	KindInteger:   "INTEGER",
	KindLongInt:   "LONGINT",
	KindReal:      "REAL",
	KindLongReal:  "LONGREAL",
	KindString:    "STRING",
	KindType:      "TYPE",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "UNKNOWN"
}

// kindSizes are the byte sizes of the basic kinds.
var kindSizes = map[Kind]int{
	KindBoolean:  1,
	KindByte:     1,
	KindChar:     1,
	KindShortInt: 2,
	KindInteger:  4,
	KindLongInt:  8,
	KindReal:     4,
	KindLongReal: 8,
	KindSet:      4,
	KindString:   8,
	KindNilType:  8,
}

// IsVirtualKind returns whether the kind is one of the virtual kinds.  The TYPE
// kind of type arguments also matches signatures by kind only.
func IsVirtualKind(k Kind) bool {
	switch k {
	case KindAnyType, KindEntire, KindFloating, KindNumeric, KindType:
		return true
	}

	return false
}

// IsBasicKind returns whether the kind is one of the basic (built-in) kinds.
func IsBasicKind(k Kind) bool {
	return KindSet <= k && k <= KindString
}
