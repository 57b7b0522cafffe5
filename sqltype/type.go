// Package sqltype represents SQL types, nullability, typed columns, and
// relation schemas, and computes type compatibility and the Arrow-interop
// mapping the planner uses when delegating to the embedded engine.
package sqltype

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the SqlType sum.
type Kind int

const (
	KindBoolean Kind = iota
	KindInteger
	KindFloat
	KindDecimal
	KindHugeInt
	KindString
	KindBinary
	KindDate
	KindTime
	KindTimestamp
	KindInterval
	KindArray
	KindStruct
	KindMap
	KindJson
	KindUuid
	KindUnknown
)

// IntWidth is the bit width of an Integer type.
type IntWidth int

const (
	Width8 IntWidth = 8
	Width16 IntWidth = 16
	Width32 IntWidth = 32
	Width64 IntWidth = 64
)

// FloatWidth is the bit width of a Float type.
type FloatWidth int

const (
	FloatWidth32 FloatWidth = 32
	FloatWidth64 FloatWidth = 64
)

// StructField is one named member of a Struct type.
type StructField struct {
	Name string
	Type SqlType
}

// SqlType is the closed sum of SQL types the planner reasons about.
// Only the fields relevant to Kind are populated; matching should always
// switch on Kind first.
type SqlType struct {
	Kind Kind

	IntWidth   IntWidth
	FloatWidth FloatWidth

	DecimalPrecision int
	DecimalScale     int

	StringMaxLen *int // nil means unbounded

	Elem *SqlType // Array element type

	Fields []StructField // Struct fields, in declared order

	MapKey   *SqlType
	MapValue *SqlType

	UnknownName string // original source text, for Kind == KindUnknown
}

func Boolean() SqlType { return SqlType{Kind: KindBoolean} }
func Integer(w IntWidth) SqlType { return SqlType{Kind: KindInteger, IntWidth: w} }
func Float(w FloatWidth) SqlType { return SqlType{Kind: KindFloat, FloatWidth: w} }
func Decimal(precision, scale int) SqlType {
	return SqlType{Kind: KindDecimal, DecimalPrecision: precision, DecimalScale: scale}
}
func HugeInt() SqlType { return SqlType{Kind: KindHugeInt} }
func String(maxLen *int) SqlType { return SqlType{Kind: KindString, StringMaxLen: maxLen} }
func Binary() SqlType { return SqlType{Kind: KindBinary} }
func Date() SqlType { return SqlType{Kind: KindDate} }
func Time() SqlType { return SqlType{Kind: KindTime} }
func Timestamp() SqlType { return SqlType{Kind: KindTimestamp} }
func Interval() SqlType { return SqlType{Kind: KindInterval} }
func Array(elem SqlType) SqlType { return SqlType{Kind: KindArray, Elem: &elem} }
func Struct(fields []StructField) SqlType { return SqlType{Kind: KindStruct, Fields: fields} }
func Map(key, value SqlType) SqlType { return SqlType{Kind: KindMap, MapKey: &key, MapValue: &value} }
func Json() SqlType { return SqlType{Kind: KindJson} }
func Uuid() SqlType { return SqlType{Kind: KindUuid} }
func Unknown(name string) SqlType { return SqlType{Kind: KindUnknown, UnknownName: name} }

// HugeIntDecimalPrecision and HugeIntDecimalScale are the wire
// representation of HugeInt, per the spec's Arrow interop rule.
const (
	HugeIntDecimalPrecision = 38
	HugeIntDecimalScale     = 0
)

// String renders the type the way it would appear in a CAST target.
func (t SqlType) String() string {
	switch t.Kind {
	case KindBoolean:
		return "BOOLEAN"
	case KindInteger:
		return fmt.Sprintf("INT%d", t.IntWidth)
	case KindFloat:
		return fmt.Sprintf("FLOAT%d", t.FloatWidth)
	case KindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", t.DecimalPrecision, t.DecimalScale)
	case KindHugeInt:
		return "HUGEINT"
	case KindString:
		if t.StringMaxLen != nil {
			return fmt.Sprintf("VARCHAR(%d)", *t.StringMaxLen)
		}

		return "VARCHAR"
	case KindBinary:
		return "BLOB"
	case KindDate:
		return "DATE"
	case KindTime:
		return "TIME"
	case KindTimestamp:
		return "TIMESTAMP"
	case KindInterval:
		return "INTERVAL"
	case KindArray:
		return t.Elem.String() + "[]"
	case KindStruct:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.Name + " " + f.Type.String()
		}

		return "STRUCT(" + strings.Join(parts, ", ") + ")"
	case KindMap:
		return fmt.Sprintf("MAP(%s, %s)", t.MapKey.String(), t.MapValue.String())
	case KindJson:
		return "JSON"
	case KindUuid:
		return "UUID"
	default:
		return t.UnknownName
	}
}

// Equal reports structural equality between two SqlTypes.
func (t SqlType) Equal(other SqlType) bool {
	return t.String() == other.String() && t.Kind == other.Kind
}

// ParseTypeString parses a free-form SQL type name into a SqlType.
// Unrecognized strings become Unknown(original).
func ParseTypeString(s string) SqlType {
	trimmed := strings.TrimSpace(s)
	upper := strings.ToUpper(trimmed)

	if strings.HasSuffix(upper, "[]") {
		inner := strings.TrimSpace(trimmed[:len(trimmed)-2])
		return Array(ParseTypeString(inner))
	}

	if strings.HasPrefix(upper, "STRUCT(") && strings.HasSuffix(trimmed, ")") {
		body := trimmed[len("STRUCT(") : len(trimmed)-1]
		return Struct(parseStructFields(body))
	}

	if strings.HasPrefix(upper, "MAP(") && strings.HasSuffix(trimmed, ")") {
		body := trimmed[len("MAP(") : len(trimmed)-1]

		parts := splitTopLevel(body, ',')
		if len(parts) == 2 {
			return Map(ParseTypeString(parts[0]), ParseTypeString(parts[1]))
		}

		return Unknown(s)
	}

	name, params := splitNameParams(upper)

	switch name {
	case "BOOL", "BOOLEAN":
		return Boolean()
	case "TINYINT", "INT1":
		return Integer(Width8)
	case "SMALLINT", "INT2":
		return Integer(Width16)
	case "INT", "INTEGER", "INT4":
		return Integer(Width32)
	case "BIGINT", "INT8":
		return Integer(Width64)
	case "FLOAT", "FLOAT4", "REAL":
		return Float(FloatWidth32)
	case "DOUBLE", "FLOAT8", "DOUBLE PRECISION":
		return Float(FloatWidth64)
	case "DECIMAL", "NUMERIC":
		precision, scale := 38, 0
		if len(params) >= 1 {
			if p, err := strconv.Atoi(strings.TrimSpace(params[0])); err == nil {
				precision = p
			}
		}

		if len(params) >= 2 {
			if s, err := strconv.Atoi(strings.TrimSpace(params[1])); err == nil {
				scale = s
			}
		}

		return Decimal(precision, scale)
	case "HUGEINT", "INT128":
		return HugeInt()
	case "VARCHAR", "CHAR", "TEXT", "STRING", "CHARACTER VARYING":
		if len(params) >= 1 {
			if n, err := strconv.Atoi(strings.TrimSpace(params[0])); err == nil {
				return String(&n)
			}
		}

		return String(nil)
	case "BLOB", "BYTEA", "BINARY", "VARBINARY":
		return Binary()
	case "DATE":
		return Date()
	case "TIME":
		return Time()
	case "TIMESTAMP", "DATETIME", "TIMESTAMPTZ":
		return Timestamp()
	case "INTERVAL":
		return Interval()
	case "JSON", "JSONB":
		return Json()
	case "UUID":
		return Uuid()
	default:
		return Unknown(s)
	}
}

func splitNameParams(upper string) (string, []string) {
	open := strings.Index(upper, "(")
	if open == -1 || !strings.HasSuffix(upper, ")") {
		return strings.TrimSpace(upper), nil
	}

	name := strings.TrimSpace(upper[:open])
	body := upper[open+1 : len(upper)-1]

	return name, splitTopLevel(body, ',')
}

func splitTopLevel(s string, sep rune) []string {
	var parts []string

	depth := 0
	start := 0

	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}

	parts = append(parts, s[start:])

	return parts
}

func parseStructFields(body string) []StructField {
	var fields []StructField

	for _, part := range splitTopLevel(body, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		sp := strings.SplitN(part, " ", 2)
		if len(sp) != 2 {
			continue
		}

		fields = append(fields, StructField{Name: strings.TrimSpace(sp[0]), Type: ParseTypeString(sp[1])})
	}

	return fields
}

func isIntegerKind(t SqlType) bool { return t.Kind == KindInteger }
func isFloatKind(t SqlType) bool   { return t.Kind == KindFloat }

// IsCompatibleWith reports whether two types may appear on either side of
// an equi-join or a comparison without a CAST. The relation is reflexive
// and symmetric; it unifies the integer family, the float family, the
// integer-with-float family, and the HugeInt-with-Integer family. Strings
// are compatible with strings. Everything else is incompatible.
func (t SqlType) IsCompatibleWith(other SqlType) bool {
	if t.Equal(other) {
		return true
	}

	if isIntegerKind(t) && isIntegerKind(other) {
		return true
	}

	if isFloatKind(t) && isFloatKind(other) {
		return true
	}

	if (isIntegerKind(t) && isFloatKind(other)) || (isFloatKind(t) && isIntegerKind(other)) {
		return true
	}

	if (t.Kind == KindHugeInt && isIntegerKind(other)) || (other.Kind == KindHugeInt && isIntegerKind(t)) {
		return true
	}

	if t.Kind == KindString && other.Kind == KindString {
		return true
	}

	return false
}
