package sqltype

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseTypeStringBasic(t *testing.T) {
	tests := []struct {
		input    string
		expected SqlType
	}{
		{"INT", Integer(Width32)},
		{"integer", Integer(Width32)},
		{"BIGINT", Integer(Width64)},
		{"VARCHAR", String(nil)},
		{"DOUBLE PRECISION", Float(FloatWidth64)},
		{"HUGEINT", HugeInt()},
		{"JSON", Json()},
		{"UUID", Uuid()},
		{"FROBNICATE", Unknown("FROBNICATE")},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got := ParseTypeString(test.input)
			assert.True(t, got.Equal(test.expected), "got %s want %s", got, test.expected)
		})
	}
}

func TestParseTypeStringDecimal(t *testing.T) {
	got := ParseTypeString("DECIMAL(10,2)")
	assert.Equal(t, Decimal(10, 2), got)
}

func TestParseTypeStringArray(t *testing.T) {
	got := ParseTypeString("INT[]")
	assert.Equal(t, Array(Integer(Width32)), got)
}

func TestParseTypeStringStruct(t *testing.T) {
	got := ParseTypeString("STRUCT(a INT, b VARCHAR)")
	assert.Equal(t, KindStruct, got.Kind)
	assert.Equal(t, 2, len(got.Fields))
	assert.Equal(t, "a", got.Fields[0].Name)
}

func TestIsCompatibleWith(t *testing.T) {
	assert.True(t, Integer(Width32).IsCompatibleWith(Integer(Width64)))
	assert.True(t, Integer(Width32).IsCompatibleWith(Float(FloatWidth64)))
	assert.True(t, HugeInt().IsCompatibleWith(Integer(Width32)))
	assert.True(t, String(nil).IsCompatibleWith(String(nil)))
	assert.False(t, String(nil).IsCompatibleWith(Integer(Width32)))
	assert.False(t, Boolean().IsCompatibleWith(Integer(Width32)))
}

func TestNullabilityCombine(t *testing.T) {
	assert.Equal(t, NotNull, Combine(NotNull, NotNull))
	assert.Equal(t, Nullable, Combine(NotNull, Nullable))
	assert.Equal(t, UnknownNullability, Combine(NotNull, UnknownNullability))
	assert.Equal(t, Combine(NotNull, Nullable), Combine(Nullable, NotNull))
}

func TestArrowRoundTrip(t *testing.T) {
	roundTrippable := []SqlType{
		Boolean(), Integer(Width8), Integer(Width16), Integer(Width32), Integer(Width64),
		Float(FloatWidth32), Float(FloatWidth64), Decimal(10, 2), HugeInt(),
		String(nil), Binary(), Date(), Time(), Timestamp(), Interval(),
		Array(Integer(Width32)),
		Array(Struct([]StructField{{Name: "a", Type: Integer(Width32)}})),
		Struct(nil),
		Struct([]StructField{
			{Name: "id", Type: Integer(Width64)},
			{Name: "amount", Type: Decimal(10, 2)},
			{Name: "tags", Type: Array(String(nil))},
		}),
		Map(String(nil), Integer(Width32)),
		Map(String(nil), Struct([]StructField{{Name: "count", Type: Integer(Width64)}})),
	}

	for _, ty := range roundTrippable {
		got := ArrowToSql(SqlToArrow(ty))
		assert.True(t, got.Equal(ty), "round trip failed for %s: got %s", ty, got)
	}
}

func TestArrowRoundTripJsonAndUuid(t *testing.T) {
	assert.Equal(t, String(nil), ArrowToSql(SqlToArrow(Json())))
	assert.Equal(t, String(nil), ArrowToSql(SqlToArrow(Uuid())))
}

func TestArrowHugeIntIsDecimal128(t *testing.T) {
	arrow := SqlToArrow(HugeInt())
	assert.Equal(t, "Decimal128", arrow.Name)
	assert.Equal(t, HugeIntDecimalPrecision, arrow.Precision)
	assert.Equal(t, HugeIntDecimalScale, arrow.Scale)
}

func TestRelationSchemaLookup(t *testing.T) {
	schema := NewRelationSchema(
		TypedColumn{Name: "id", Type: Integer(Width32), SourceTable: "orders"},
		TypedColumn{Name: "name", Type: String(nil), SourceTable: "customers"},
	)

	col, ok := schema.Lookup("ID")
	assert.True(t, ok)
	assert.Equal(t, "id", col.Name)

	col, ok = schema.LookupQualified("customers", "name")
	assert.True(t, ok)
	assert.Equal(t, "customers", col.SourceTable)

	_, ok = schema.Lookup("missing")
	assert.False(t, ok)
}

func TestRelationSchemaWithNullability(t *testing.T) {
	schema := NewRelationSchema(TypedColumn{Name: "id", Nullability: NotNull})
	nulled := schema.WithNullability(Nullable)
	assert.Equal(t, Nullable, nulled.Columns[0].Nullability)
}
