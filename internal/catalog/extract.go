package catalog

import (
	"strings"

	"github.com/maxcollombin/gn-rag-stack/internal/config"
)

// Record holds the flat fields pulled out of one raw catalog record.
type Record struct {
	ID       string
	Title    string
	Abstract string
}

// Text is the string that gets embedded and indexed. Empty text means the
// record carries nothing worth searching.
func (r Record) Text() string {
	return strings.TrimSpace(r.Title + " " + r.Abstract)
}

// Valid reports whether the record can be indexed at all.
func (r Record) Valid() bool {
	return r.ID != "" && r.Text() != ""
}

// Extract maps a raw catalog record to a Record using the configured dotted
// field paths. Catalog schemas vary record to record, so a missing key or a
// non-string value resolves to "" rather than an error.
func Extract(source map[string]interface{}, mapping config.FieldMapping) Record {
	return Record{
		ID:       lookupString(source, mapping.ID),
		Title:    lookupString(source, mapping.Title),
		Abstract: lookupString(source, mapping.Abstract),
	}
}

func lookupString(source map[string]interface{}, path string) string {
	if path == "" {
		return ""
	}

	var current interface{} = source
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current, ok = m[part]
		if !ok {
			return ""
		}
	}

	s, _ := current.(string)
	return s
}
