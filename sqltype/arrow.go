package sqltype

// ArrowType is a minimal physical type lattice modeling the subset of
// Apache Arrow's type system the embedded planning engine exchanges
// schemas in. It is not a full Arrow binding: only the variants needed to
// round-trip SqlType are represented.
type ArrowType struct {
	Name string // e.g. "Int32", "Utf8", "Decimal128", "Null"

	// Only set for Decimal128.
	Precision int
	Scale     int

	Elem *ArrowType // List element type

	Fields []ArrowField // Struct member types, in declared order

	Key   *ArrowType // Map key type
	Value *ArrowType // Map value type
}

// ArrowField is one named member of a Struct ArrowType.
type ArrowField struct {
	Name string
	Type ArrowType
}

func arrowSimple(name string) ArrowType { return ArrowType{Name: name} }

// SqlToArrow is the surjection from SqlType to ArrowType used to advertise
// the catalog to the embedded engine. Json and Uuid both map to Utf8 and
// therefore do not round-trip to themselves (see ArrowToSql).
func SqlToArrow(t SqlType) ArrowType {
	switch t.Kind {
	case KindBoolean:
		return arrowSimple("Boolean")
	case KindInteger:
		switch t.IntWidth {
		case Width8:
			return arrowSimple("Int8")
		case Width16:
			return arrowSimple("Int16")
		case Width32:
			return arrowSimple("Int32")
		default:
			return arrowSimple("Int64")
		}
	case KindFloat:
		if t.FloatWidth == FloatWidth32 {
			return arrowSimple("Float32")
		}

		return arrowSimple("Float64")
	case KindDecimal:
		return ArrowType{Name: "Decimal128", Precision: t.DecimalPrecision, Scale: t.DecimalScale}
	case KindHugeInt:
		return ArrowType{Name: "Decimal128", Precision: HugeIntDecimalPrecision, Scale: HugeIntDecimalScale}
	case KindString:
		return arrowSimple("Utf8")
	case KindBinary:
		return arrowSimple("Binary")
	case KindDate:
		return arrowSimple("Date32")
	case KindTime:
		return arrowSimple("Time64")
	case KindTimestamp:
		return arrowSimple("Timestamp")
	case KindInterval:
		return arrowSimple("Interval")
	case KindArray:
		elem := SqlToArrow(*t.Elem)
		return ArrowType{Name: "List", Elem: &elem}
	case KindStruct:
		var fields []ArrowField
		if len(t.Fields) > 0 {
			fields = make([]ArrowField, len(t.Fields))
			for i, f := range t.Fields {
				fields[i] = ArrowField{Name: f.Name, Type: SqlToArrow(f.Type)}
			}
		}

		return ArrowType{Name: "Struct", Fields: fields}
	case KindMap:
		key := SqlToArrow(*t.MapKey)
		value := SqlToArrow(*t.MapValue)

		return ArrowType{Name: "Map", Key: &key, Value: &value}
	case KindJson:
		return arrowSimple("Utf8")
	case KindUuid:
		return arrowSimple("Utf8")
	default:
		return arrowSimple("Null")
	}
}

// ArrowToSql is the best-effort inverse of SqlToArrow. Unsigned widths
// widen to the next signed width (Arrow has no unsigned SqlType
// counterpart); Float16 widens to Float32; large/view string variants map
// to an unbounded String; Decimal128(38,0) maps back to HugeInt; Date64
// maps to Date; Null maps to Unknown("null").
func ArrowToSql(a ArrowType) SqlType {
	switch a.Name {
	case "Boolean":
		return Boolean()
	case "Int8":
		return Integer(Width8)
	case "UInt8":
		return Integer(Width16)
	case "Int16":
		return Integer(Width16)
	case "UInt16":
		return Integer(Width32)
	case "Int32":
		return Integer(Width32)
	case "UInt32":
		return Integer(Width64)
	case "Int64":
		return Integer(Width64)
	case "UInt64":
		return HugeInt()
	case "Float16":
		return Float(FloatWidth32)
	case "Float32":
		return Float(FloatWidth32)
	case "Float64":
		return Float(FloatWidth64)
	case "Decimal128":
		if a.Precision == HugeIntDecimalPrecision && a.Scale == HugeIntDecimalScale {
			return HugeInt()
		}

		return Decimal(a.Precision, a.Scale)
	case "Utf8", "LargeUtf8", "Utf8View":
		return String(nil)
	case "Binary", "LargeBinary", "BinaryView":
		return Binary()
	case "Date32":
		return Date()
	case "Date64":
		return Date()
	case "Time32", "Time64":
		return Time()
	case "Timestamp":
		return Timestamp()
	case "Interval":
		return Interval()
	case "List", "LargeList":
		if a.Elem != nil {
			elem := ArrowToSql(*a.Elem)
			return Array(elem)
		}

		return Array(Unknown("unknown"))
	case "Struct":
		var fields []StructField
		if len(a.Fields) > 0 {
			fields = make([]StructField, len(a.Fields))
			for i, f := range a.Fields {
				fields[i] = StructField{Name: f.Name, Type: ArrowToSql(f.Type)}
			}
		}

		return Struct(fields)
	case "Map":
		if a.Key != nil && a.Value != nil {
			return Map(ArrowToSql(*a.Key), ArrowToSql(*a.Value))
		}

		return Map(Unknown("unknown"), Unknown("unknown"))
	case "Null":
		return Unknown("null")
	default:
		return Unknown(a.Name)
	}
}
