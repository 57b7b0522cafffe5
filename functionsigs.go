package featherflow

// FunctionSignature defines the return type and nullability behavior of a
// built-in SQL function. ReturnTypeByArg: true means the function returns
// the type of its first argument (COALESCE, MIN, MAX, ...). NullableByArg:
// true means the result is nullable iff any argument is nullable. CastType:
// true means the function's return type is whatever type it was cast to
// (CAST/TRY_CAST), resolved by the caller from the expression's type
// argument rather than from this table.
type FunctionSignature struct {
	ReturnType      string
	ReturnTypeByArg bool
	Nullable        bool
	NullableByArg   bool
	CastType        bool
	IsAggregate     bool
}

// commonFunctionSignatures is shared by every dialect; dialect-specific
// tables start from this and override/extend it.
var commonFunctionSignatures = map[string]FunctionSignature{
	"LENGTH":     {ReturnType: "int32", NullableByArg: true},
	"COALESCE":   {ReturnTypeByArg: true, NullableByArg: true},
	"CAST":       {CastType: true, NullableByArg: true},
	"TRY_CAST":   {CastType: true, Nullable: true},
	"UPPER":      {ReturnType: "string", NullableByArg: true},
	"LOWER":      {ReturnType: "string", NullableByArg: true},
	"NOW":        {ReturnType: "timestamp", Nullable: false},
	"CURRENT_DATE": {ReturnType: "date", Nullable: false},
	"SUBSTRING":  {ReturnType: "string", NullableByArg: true},
	"TRIM":       {ReturnType: "string", NullableByArg: true},
	"ROUND":      {ReturnTypeByArg: true, NullableByArg: true},
	"ROW_NUMBER": {ReturnType: "int64", Nullable: false, IsAggregate: true},
	"RANK":       {ReturnType: "int64", Nullable: false, IsAggregate: true},
	"DENSE_RANK": {ReturnType: "int64", Nullable: false, IsAggregate: true},
	"SUM":        {ReturnTypeByArg: true, NullableByArg: true, IsAggregate: true},
	"AVG":        {ReturnType: "float64", NullableByArg: true, IsAggregate: true},
	"COUNT":      {ReturnType: "int64", Nullable: false, IsAggregate: true},
	"MIN":        {ReturnTypeByArg: true, NullableByArg: true, IsAggregate: true},
	"MAX":        {ReturnTypeByArg: true, NullableByArg: true, IsAggregate: true},
	"FIRST_VALUE": {ReturnTypeByArg: true, NullableByArg: true, IsAggregate: true},
	"LAST_VALUE": {ReturnTypeByArg: true, NullableByArg: true, IsAggregate: true},
	"LEAD":       {ReturnTypeByArg: true, NullableByArg: true, IsAggregate: true},
	"LAG":        {ReturnTypeByArg: true, NullableByArg: true, IsAggregate: true},
}

// FunctionSignatures maps Dialect to function name to signature. This is
// the user-function-signature namespace the planner advertises to the
// embedded catalog alongside the model schemas (§4.4).
var FunctionSignatures = map[Dialect]map[string]FunctionSignature{
	DialectDuckDB:    withDialectExtras(map[string]FunctionSignature{"LIST_VALUE": {ReturnType: "array", NullableByArg: true}}),
	DialectSnowflake: withDialectExtras(map[string]FunctionSignature{"ARRAY_CONSTRUCT": {ReturnType: "array", NullableByArg: true}}),
}

func withDialectExtras(extra map[string]FunctionSignature) map[string]FunctionSignature {
	merged := make(map[string]FunctionSignature, len(commonFunctionSignatures)+len(extra))
	for k, v := range commonFunctionSignatures {
		merged[k] = v
	}

	for k, v := range extra {
		merged[k] = v
	}

	return merged
}
