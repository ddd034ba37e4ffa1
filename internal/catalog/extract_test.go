package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maxcollombin/gn-rag-stack/internal/config"
)

var testMapping = config.FieldMapping{
	ID:       "uuid",
	Title:    "resourceTitleObject.default",
	Abstract: "resourceAbstractObject.default",
}

func TestExtractNestedFields(t *testing.T) {
	source := map[string]interface{}{
		"uuid": "abc-123",
		"resourceTitleObject": map[string]interface{}{
			"default": "Flood map",
		},
		"resourceAbstractObject": map[string]interface{}{
			"default": "Flood risk zones",
		},
	}

	record := Extract(source, testMapping)

	assert.Equal(t, "abc-123", record.ID)
	assert.Equal(t, "Flood map", record.Title)
	assert.Equal(t, "Flood risk zones", record.Abstract)
	assert.True(t, record.Valid())
	assert.Equal(t, "Flood map Flood risk zones", record.Text())
}

func TestExtractMissingIntermediateKey(t *testing.T) {
	source := map[string]interface{}{
		"uuid": "abc-123",
	}

	record := Extract(source, testMapping)

	assert.Equal(t, "abc-123", record.ID)
	assert.Equal(t, "", record.Title)
	assert.Equal(t, "", record.Abstract)
	assert.False(t, record.Valid())
}

func TestExtractNonStringTerminal(t *testing.T) {
	source := map[string]interface{}{
		"uuid": "abc-123",
		"resourceTitleObject": map[string]interface{}{
			"default": map[string]interface{}{"lang": "en"},
		},
		"resourceAbstractObject": map[string]interface{}{
			"default": 42.0,
		},
	}

	record := Extract(source, testMapping)

	assert.Equal(t, "", record.Title)
	assert.Equal(t, "", record.Abstract)
}

func TestExtractIntermediateNotAMap(t *testing.T) {
	source := map[string]interface{}{
		"uuid":                "abc-123",
		"resourceTitleObject": "just a string",
	}

	record := Extract(source, testMapping)

	assert.Equal(t, "", record.Title)
}

func TestRecordValid(t *testing.T) {
	assert.False(t, Record{ID: "", Title: "x", Abstract: "y"}.Valid())
	assert.False(t, Record{ID: "a", Title: "  ", Abstract: ""}.Valid())
	assert.True(t, Record{ID: "a", Title: "", Abstract: "y"}.Valid())
}
