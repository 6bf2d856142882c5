// internal/activities/queries.go
package activities

// Query builders for the activity catalog index. Kept separate from the
// service so the generated bodies can be asserted on without a live
// cluster.

// buildSearchQuery ranks name matches above description and code matches.
func buildSearchQuery(query string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^3", "description^2", "code"},
				"type":   "best_fields",
			},
		},
	}
}

// buildListQuery filters by the optional catalog facets; with no facets it
// is a match_all.
func buildListQuery(activityType, licenseType string) map[string]interface{} {
	filterClauses := []interface{}{}

	if activityType != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"activity_type": activityType},
		})
	}
	if licenseType != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"license_type": licenseType},
		})
	}

	if len(filterClauses) == 0 {
		return map[string]interface{}{
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
			"sort":  []interface{}{map[string]interface{}{"code": "asc"}},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filterClauses},
		},
		"sort": []interface{}{map[string]interface{}{"code": "asc"}},
	}
}
