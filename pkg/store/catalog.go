package store

// CatalogField is one of the semantic fields indexed alongside each entry.
type CatalogField string

const (
	FieldClass       CatalogField = "class"
	FieldIndications CatalogField = "indications"
	FieldMechanism   CatalogField = "mechanism"
	FieldRoute       CatalogField = "route"
	FieldPregnancy   CatalogField = "pregnancy"
)

// CatalogFields lists the indexed fields in a stable order.
var CatalogFields = []CatalogField{FieldClass, FieldIndications, FieldMechanism, FieldRoute, FieldPregnancy}

// Label returns the human readable column label used in the dataset and in
// field-guided queries.
func (f CatalogField) Label() string {
	switch f {
	case FieldClass:
		return "Drug Class"
	case FieldIndications:
		return "Indications"
	case FieldMechanism:
		return "Mechanism of Action"
	case FieldRoute:
		return "Route of Administration"
	case FieldPregnancy:
		return "Pregnancy Category"
	default:
		return string(f)
	}
}

// Valid reports whether f is a known indexed field.
func (f CatalogField) Valid() bool {
	for _, known := range CatalogFields {
		if f == known {
			return true
		}
	}
	return false
}

// CatalogEntry is one indexed record of the vector index.
type CatalogEntry struct {
	ID      string                  `json:"id"`
	Name    string                  `json:"name"`
	Fields  map[CatalogField]string `json:"fields"`
	Content string                  `json:"content"`
	Score   float32                 `json:"score,omitempty"`
}

// Field returns the entry's value for f, or "".
func (e CatalogEntry) Field(f CatalogField) string {
	if e.Fields == nil {
		return ""
	}
	return e.Fields[f]
}
