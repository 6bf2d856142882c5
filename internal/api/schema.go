// internal/api/schema.go
package api

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Request-body schemas, validated before any draft mutation happens so a
// malformed client payload can never half-apply.

const shareholderPatchSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"email": {"type": "string"},
		"phone": {"type": "string"},
		"number_of_shares": {"type": "integer", "minimum": 0},
		"roles": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string", "enum": ["Shareholder", "General Manager", "Director", "Secretary"]}
		},
		"residential_address": {"type": "string"},
		"is_uae_resident": {"type": "boolean"},
		"is_pep": {"type": "boolean"}
	}
}`

const shareholdingSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["number_of_shareholders", "total_shares"],
	"properties": {
		"number_of_shareholders": {"type": "integer", "minimum": 0, "maximum": 50},
		"total_shares": {"type": "integer", "minimum": 0}
	}
}`

const activitySelectionSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["activity_id"],
	"properties": {
		"activity_id": {"type": "integer", "minimum": 1},
		"name": {"type": "string"},
		"description": {"type": "string"},
		"code": {"type": "string"},
		"license_type": {"type": "string"}
	}
}`

const passportFieldSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["field", "value"],
	"properties": {
		"field": {
			"type": "string",
			"enum": ["passport_number", "full_name", "first_name", "middle_name", "last_name",
				"date_of_birth", "nationality", "issue_date", "expiry_date"]
		},
		"value": {"type": "string"}
	}
}`

var (
	shareholderPatchValidator  = gojsonschema.NewStringLoader(shareholderPatchSchema)
	shareholdingValidator      = gojsonschema.NewStringLoader(shareholdingSchema)
	activitySelectionValidator = gojsonschema.NewStringLoader(activitySelectionSchema)
	passportFieldValidator     = gojsonschema.NewStringLoader(passportFieldSchema)
)

// validateBody checks raw JSON against a schema and returns a flat issue
// list, empty when valid.
func validateBody(schema gojsonschema.JSONLoader, raw []byte) []string {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return []string{err.Error()}
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, strings.TrimSpace(e.String()))
	}
	return issues
}
