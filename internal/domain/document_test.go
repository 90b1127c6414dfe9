package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Matches(t *testing.T) {
	doc := Document{
		FieldCompany:  "Acme Corp",
		FieldPosition: "Backend Engineer",
		FieldStatus:   "applied",
		FieldNotes:    "Referred by Dana",
		FieldTags:     []any{"Golang", "remote"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"company case-insensitive", Filter{Query: "acme"}, true},
		{"position substring", Filter{Query: "END ENG"}, true},
		{"notes", Filter{Query: "dana"}, true},
		{"tag substring", Filter{Query: "lang"}, true},
		{"no match", Filter{Query: "globex"}, false},
		{"status exact", Filter{Status: "applied"}, true},
		{"status is case-sensitive", Filter{Status: "Applied"}, false},
		{"status and query", Filter{Status: "applied", Query: "remote"}, true},
		{"status mismatch wins over query", Filter{Status: "offer", Query: "acme"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(doc))
		})
	}
}

func TestFilter_MatchesMissingFields(t *testing.T) {
	doc := Document{FieldCompany: "Initech"}

	assert.False(t, Filter{Status: "applied"}.Matches(doc))
	assert.False(t, Filter{Query: "tps"}.Matches(doc))
	assert.True(t, Filter{Query: "init"}.Matches(doc))
}

func TestPatch_Apply(t *testing.T) {
	doc := Document{IDKey: "1", FieldCompany: "Acme", FieldNotes: "old", FieldTags: []string{"a"}}
	p := Patch{Set: Document{FieldStatus: "offer"}, Unset: []string{FieldNotes}}

	out := p.Apply(doc)

	assert.Equal(t, "offer", out[FieldStatus])
	assert.NotContains(t, out, FieldNotes)
	assert.Equal(t, "old", doc[FieldNotes], "original must not change")
	assert.Equal(t, "Acme", out[FieldCompany])
}

func TestDocument_Compact(t *testing.T) {
	doc := Document{"a": nil, "b": "x"}
	doc.Compact()
	assert.Equal(t, Document{"b": "x"}, doc)
}

func TestToPublic(t *testing.T) {
	updated := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	doc := Document{
		IDKey:             "4b0c7a42-1f57-4d0f-8c1e-8d3c1d3b9a10",
		FieldCompany:      "Acme",
		FieldPosition:     "Engineer",
		FieldStatus:       "applied",
		FieldPriority:     "medium",
		FieldSalaryMax:    json.Number("95000"),
		FieldSalaryMin:    int64(80000),
		FieldAppliedDate:  "2024-05-01",
		FieldFollowUpDate: NewDate(2024, time.May, 8),
		FieldTags:         []string{"x"},
		FieldUpdatedAt:    updated,
		"unrelated_field": true,
	}

	app := ToPublic(doc)

	assert.Equal(t, "4b0c7a42-1f57-4d0f-8c1e-8d3c1d3b9a10", app.ID)
	assert.Equal(t, "Acme", app.Company)
	assert.Equal(t, "2024-05-06T07:08:09Z", app.UpdatedAt)
	assert.Equal(t, "2024-05-01", *app.AppliedDate)
	assert.Equal(t, "2024-05-08", *app.FollowUpDate)
	assert.Equal(t, 95000.0, *app.SalaryMax)
	assert.Equal(t, 80000.0, *app.SalaryMin)
	assert.Equal(t, []string{"x"}, app.Tags)
	assert.Nil(t, app.Notes)

	data, err := json.Marshal(app)
	assert.NoError(t, err)
	var raw map[string]any
	assert.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, IDKey)
	assert.NotContains(t, raw, "notes")
	assert.Equal(t, "4b0c7a42-1f57-4d0f-8c1e-8d3c1d3b9a10", raw["id"])
}

func TestToPublic_DefaultsTagsToEmpty(t *testing.T) {
	app := ToPublic(Document{IDKey: "x", FieldCompany: "A", FieldPosition: "B"})

	assert.NotNil(t, app.Tags)
	assert.Empty(t, app.Tags)
	assert.Empty(t, app.UpdatedAt)
}
