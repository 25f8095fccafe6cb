package measurement

import "strings"

// Schema describes which vocabulary columns a table carries. It is computed
// once per table so analyses can declare their requirements up front instead
// of probing for columns as they go.
type Schema struct {
	present map[string]bool
}

// NewSchema builds a Schema from a list of column names. Names outside the
// vocabulary are ignored.
func NewSchema(names []string) Schema {
	s := Schema{present: make(map[string]bool, len(names))}
	for _, n := range names {
		if IsRecognised(n) {
			s.present[n] = true
		}
	}
	return s
}

// Has reports whether the column is present.
func (s Schema) Has(name string) bool {
	return s.present[name]
}

// HasAll reports whether every listed column is present.
func (s Schema) HasAll(names ...string) bool {
	for _, n := range names {
		if !s.present[n] {
			return false
		}
	}
	return true
}

// Missing returns the listed columns that are absent, in the order given.
func (s Schema) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if !s.present[n] {
			out = append(out, n)
		}
	}
	return out
}

// Columns returns the present vocabulary columns in canonical order.
func (s Schema) Columns() []string {
	out := make([]string, 0, len(s.present))
	for _, c := range Vocabulary {
		if s.present[c] {
			out = append(out, c)
		}
	}
	return out
}

func (s Schema) String() string {
	return "{" + strings.Join(s.Columns(), ",") + "}"
}
