// internal/activities/queries_test.go
package activities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchQuery_FieldBoosts(t *testing.T) {
	q := buildSearchQuery("software")

	mm := q["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "software", mm["query"])
	assert.Equal(t, []string{"name^3", "description^2", "code"}, mm["fields"])
	assert.Equal(t, "best_fields", mm["type"])
}

func TestBuildListQuery_NoFilters(t *testing.T) {
	q := buildListQuery("", "")

	query := q["query"].(map[string]interface{})
	assert.Contains(t, query, "match_all")
}

func TestBuildListQuery_Facets(t *testing.T) {
	q := buildListQuery("Professional", "Commercial")

	boolQ := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filters := boolQ["filter"].([]interface{})
	require.Len(t, filters, 2)

	first := filters[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "Professional", first["activity_type"])
	second := filters[1].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "Commercial", second["license_type"])
}

func TestSearch_RejectsShortQuery(t *testing.T) {
	svc := &Service{}
	_, err := svc.Search(context.Background(), "a", 10)
	assert.ErrorIs(t, err, ErrQueryTooShort)

	_, err = svc.Search(context.Background(), "  x  ", 10)
	assert.ErrorIs(t, err, ErrQueryTooShort)
}
