package ml

// DoubleType is the only column type the CSV reader understands.
const DoubleType = "double"

// Field is one named, typed column of a Schema.
type Field struct {
	Name string
	Type string
}

// Schema describes the ordered columns of a dataset.
type Schema struct {
	Fields []Field
}

// Wine columns, in file order. The last one is the label.
const (
	ColFixedAcidity       = "fixed_acidity"
	ColVolatileAcidity    = "volatile_acidity"
	ColCitricAcid         = "citric_acid"
	ColResidualSugar      = "residual_sugar"
	ColChlorides          = "chlorides"
	ColFreeSulfurDioxide  = "free_sulfur_dioxide"
	ColTotalSulfurDioxide = "total_sulfur_dioxide"
	ColDensity            = "density"
	ColPH                 = "pH"
	ColSulphates          = "sulphates"
	ColAlcohol            = "alcohol"
	ColQuality            = "quality"
)

// WineSchema returns the twelve double columns of the wine quality CSV.
func WineSchema() Schema {
	names := []string{
		ColFixedAcidity,
		ColVolatileAcidity,
		ColCitricAcid,
		ColResidualSugar,
		ColChlorides,
		ColFreeSulfurDioxide,
		ColTotalSulfurDioxide,
		ColDensity,
		ColPH,
		ColSulphates,
		ColAlcohol,
		ColQuality,
	}
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, Field{Name: name, Type: DoubleType})
	}
	return Schema{Fields: fields}
}

func (s Schema) Len() int { return len(s.Fields) }

func (s Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Index returns the position of the named column or -1.
func (s Schema) Index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
