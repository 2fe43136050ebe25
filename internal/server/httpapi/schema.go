package httpapi

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/xeipuuv/gojsonschema"
)

const (
	schemaSendOTP = `{
	"type": "object",
	"required": ["email", "password", "name"],
	"properties": {
		"email":    {"type": "string", "minLength": 1},
		"password": {"type": "string", "minLength": 1},
		"name":     {"type": "string", "minLength": 1}
	}
}`

	schemaVerifyOTP = `{
	"type": "object",
	"required": ["email", "otp", "password", "name"],
	"properties": {
		"email":    {"type": "string", "minLength": 1},
		"otp":      {"type": "string"},
		"password": {"type": "string", "minLength": 1},
		"name":     {"type": "string", "minLength": 1}
	}
}`

	schemaLogin = `{
	"type": "object",
	"required": ["password"],
	"properties": {
		"identifier": {"type": "string"},
		"email":      {"type": "string"},
		"username":   {"type": "string"},
		"password":   {"type": "string", "minLength": 1}
	}
}`

	schemaTaskCreate = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["title"],
	"properties": {
		"title":       {"type": "string", "minLength": 1},
		"description": {"type": ["string", "null"]},
		"priority":    {"enum": ["low", "medium", "high"]},
		"status":      {"enum": ["todo", "in_progress", "completed"]},
		"dueDate":     {"type": ["string", "null"]},
		"tags":        {"type": ["array", "null"], "items": {"type": "string"}}
	}
}`

	schemaTaskUpdate = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"title":       {"type": "string", "minLength": 1},
		"description": {"type": ["string", "null"]},
		"priority":    {"enum": ["low", "medium", "high"]},
		"status":      {"enum": ["todo", "in_progress", "completed"]},
		"dueDate":     {"type": ["string", "null"]},
		"aiSummary":   {"type": ["string", "null"]},
		"tags":        {"type": ["array", "null"], "items": {"type": "string"}}
	}
}`

	schemaPrioritize = `{
	"type": "object",
	"required": ["title", "description"],
	"properties": {
		"title":       {"type": "string"},
		"description": {"type": "string"}
	}
}`

	schemaSummarize = `{
	"type": "object",
	"required": ["description"],
	"properties": {
		"description": {"type": "string"}
	}
}`
)

var (
	sendOTPSchema    = mustSchema(schemaSendOTP)
	verifyOTPSchema  = mustSchema(schemaVerifyOTP)
	loginSchema      = mustSchema(schemaLogin)
	taskCreateSchema = mustSchema(schemaTaskCreate)
	taskUpdateSchema = mustSchema(schemaTaskUpdate)
	prioritizeSchema = mustSchema(schemaPrioritize)
	summarizeSchema  = mustSchema(schemaSummarize)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(err)
	}
	return schema
}

// validateBody checks body against schema and reports only the first
// problem as a *common.ValidationError.
func validateBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return common.NewValidationError("", "Invalid JSON body")
	}
	if result.Valid() {
		return nil
	}

	first := result.Errors()[0]
	return common.NewValidationError(errorField(first), errorMessage(first))
}

// errorField names the offending property. Errors about missing or unknown
// properties are reported on the root, with the property in the details.
func errorField(e gojsonschema.ResultError) string {
	if p, ok := e.Details()["property"].(string); ok && p != "" {
		field := e.Field()
		if field == "(root)" {
			return p
		}
		return field + "." + p
	}
	if f := e.Field(); f != "(root)" {
		return f
	}
	return ""
}

func errorMessage(e gojsonschema.ResultError) string {
	switch e.Type() {
	case "required":
		return fmt.Sprintf("%s is required", errorField(e))
	case "additional_property_not_allowed":
		return fmt.Sprintf("%s is not allowed", errorField(e))
	}
	d := e.Description()
	if d == "" {
		return "Invalid value"
	}
	return strings.ToUpper(d[:1]) + d[1:]
}
