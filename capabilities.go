package featherflow

// Capabilities defines which SQL features are supported by each dialect.
var Capabilities = map[Dialect]map[Feature]bool{
	DialectDuckDB: {
		FeatureConcatOperator:   true,
		FeatureConcatFunction:   true,
		FeatureQualifyThreePart: true,
	},
	DialectSnowflake: {
		FeatureConcatOperator:   true,
		FeatureConcatFunction:   true,
		FeatureQualifyThreePart: true,
	},
}
