package search

import (
	"testing"

	"eventhive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQueryMatchAll(t *testing.T) {
	q := BuildQuery(models.ListEventsFilter{Page: 1, PageSize: 20})
	assert.Contains(t, q, "match_all")
}

func TestBuildQueryCombinesFilters(t *testing.T) {
	q := BuildQuery(models.ListEventsFilter{Query: "jazz", Category: "music", Date: "2025-06-01"})

	boolQuery, ok := q["bool"].(map[string]interface{})
	require.True(t, ok)

	must, ok := boolQuery["must"].([]map[string]interface{})
	require.True(t, ok)
	assert.Len(t, must, 1)
	assert.Contains(t, must[0], "multi_match")

	filters, ok := boolQuery["filter"].([]map[string]interface{})
	require.True(t, ok)
	assert.Len(t, filters, 2)
}

func TestBuildQueryFilterOnly(t *testing.T) {
	q := BuildQuery(models.ListEventsFilter{Status: "active"})

	boolQuery := q["bool"].(map[string]interface{})
	assert.NotContains(t, boolQuery, "must")
	assert.Len(t, boolQuery["filter"], 1)
}
