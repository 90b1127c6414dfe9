// Package schema is the validation layer for job application payloads.
//
// The create schema is a JSON Schema document built from a single field table.
// It is served as-is by the introspection endpoint and compiled with
// gojsonschema to validate request bodies, so what the UI reads and what the
// server enforces cannot drift apart. The update schema is derived from it by
// dropping required members and defaults.
package schema

import (
	"github.com/ignite/jobtracker/internal/domain"
)

// Name is the entity name reported by introspection.
const Name = "JobApplication"

// Description is the entity description reported by introspection.
const Description = "Job applications you have applied to"

type kind int

const (
	kindString kind = iota
	kindNumber
	kindDate
	kindStringList
)

type field struct {
	name        string
	title       string
	description string
	kind        kind
	required    bool
	nullable    bool
	nonEmpty    bool
	nonNegative bool
	def         any
}

var fields = []field{
	{name: domain.FieldCompany, title: "Company", description: "Company name", kind: kindString, required: true, nonEmpty: true},
	{name: domain.FieldPosition, title: "Position", description: "Role or job title", kind: kindString, required: true, nonEmpty: true},
	{name: domain.FieldLocation, title: "Location", description: "Job location (City, Country or Remote)", kind: kindString, nullable: true},
	{name: domain.FieldJobLink, title: "Job Link", description: "URL to the job posting", kind: kindString, nullable: true},
	{name: domain.FieldSource, title: "Source", description: "Where you found it (LinkedIn, Referral, etc.)", kind: kindString, nullable: true},
	{name: domain.FieldStatus, title: "Status", description: "Application status", kind: kindString, def: domain.StatusApplied},
	{name: domain.FieldAppliedDate, title: "Applied Date", description: "Date you applied", kind: kindDate, nullable: true},
	{name: domain.FieldFollowUpDate, title: "Follow Up Date", description: "Planned follow-up date", kind: kindDate, nullable: true},
	{name: domain.FieldSalaryMin, title: "Salary Min", description: "Min salary expectation", kind: kindNumber, nullable: true, nonNegative: true},
	{name: domain.FieldSalaryMax, title: "Salary Max", description: "Max salary expectation", kind: kindNumber, nullable: true, nonNegative: true},
	{name: domain.FieldContactName, title: "Contact Name", description: "Recruiter or contact name", kind: kindString, nullable: true},
	{name: domain.FieldContactEmail, title: "Contact Email", description: "Recruiter or contact email", kind: kindString, nullable: true},
	{name: domain.FieldResumeVersion, title: "Resume Version", description: "Which resume version you sent", kind: kindString, nullable: true},
	{name: domain.FieldPriority, title: "Priority", description: "low, medium, high, urgent", kind: kindString, nullable: true, def: domain.PriorityMedium},
	{name: domain.FieldTags, title: "Tags", description: "Labels for filtering", kind: kindStringList, def: []any{}},
	{name: domain.FieldNotes, title: "Notes", description: "Any notes about this application", kind: kindString, nullable: true},
}

// Document returns a fresh copy of the create schema.
func Document() map[string]any {
	return build(true)
}

// updateDocument returns the schema used for partial updates: same types and
// constraints, nothing required, no defaults.
func updateDocument() map[string]any {
	return build(false)
}

func build(forCreate bool) map[string]any {
	props := make(map[string]any, len(fields))
	var required []any
	for _, f := range fields {
		props[f.name] = f.property(forCreate)
		if forCreate && f.required {
			required = append(required, f.name)
		}
	}

	doc := map[string]any{
		"title":       Name,
		"description": Description,
		"type":        "object",
		"properties":  props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func (f field) property(withDefault bool) map[string]any {
	base := map[string]any{}
	switch f.kind {
	case kindString:
		base["type"] = "string"
		if f.nonEmpty {
			base["minLength"] = 1
		}
	case kindNumber:
		base["type"] = "number"
		if f.nonNegative {
			base["minimum"] = 0
		}
	case kindDate:
		base["type"] = "string"
		base["format"] = "date"
	case kindStringList:
		base["type"] = "array"
		base["items"] = map[string]any{"type": "string"}
	}

	prop := base
	if f.nullable {
		prop = map[string]any{
			"anyOf": []any{base, map[string]any{"type": "null"}},
		}
	}
	prop["title"] = f.title
	prop["description"] = f.description
	if withDefault {
		switch {
		case f.def != nil:
			prop["default"] = f.def
		case f.nullable:
			prop["default"] = nil
		}
	}
	return prop
}
