package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// IDKey is the internal key under which a store exposes a document's
// identifier. It never appears in the public form.
const IDKey = "_id"

// Document is a schema-flexible record as exchanged with a document store.
type Document map[string]any

// Clone returns a shallow copy with string slices duplicated so callers can
// mutate tags without aliasing the stored value.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if tags, ok := v.([]string); ok {
			v = append([]string(nil), tags...)
		}
		out[k] = v
	}
	return out
}

// Compact drops keys holding nil so they are simply absent from storage.
func (d Document) Compact() Document {
	for k, v := range d {
		if v == nil {
			delete(d, k)
		}
	}
	return d
}

// Patch is a merge patch: Set overwrites keys, Unset removes them.
type Patch struct {
	Set   Document
	Unset []string
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return len(p.Set) == 0 && len(p.Unset) == 0
}

// Apply returns a copy of doc with the patch applied.
func (p Patch) Apply(doc Document) Document {
	out := doc.Clone()
	for k, v := range p.Set {
		out[k] = v
	}
	for _, k := range p.Unset {
		delete(out, k)
	}
	return out
}

// Filter selects documents for a listing. Status is an exact, case-sensitive
// match. Query matches case-insensitively as a substring of company,
// position, notes, or any tag. Both are ignored when empty.
type Filter struct {
	Status string
	Query  string
}

// Matches evaluates the filter against a document in process, for stores
// that cannot express it natively.
func (f Filter) Matches(doc Document) bool {
	if f.Status != "" {
		s, ok := doc[FieldStatus].(string)
		if !ok || s != f.Status {
			return false
		}
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	for _, key := range []string{FieldCompany, FieldPosition, FieldNotes} {
		if s, ok := doc[key].(string); ok && strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	for _, tag := range stringList(doc[FieldTags]) {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// ToPublic normalizes a stored document: the identifier moves from IDKey to
// "id" as text and timestamps become ISO-8601 text. Values decoded from
// JSON or DynamoDB (float64, []any, RFC 3339 strings) are handled alongside
// native Go values.
func ToPublic(doc Document) JobApplication {
	app := JobApplication{
		ID:            idText(doc[IDKey]),
		Company:       text(doc[FieldCompany]),
		Position:      text(doc[FieldPosition]),
		Location:      textPtr(doc[FieldLocation]),
		JobLink:       textPtr(doc[FieldJobLink]),
		Source:        textPtr(doc[FieldSource]),
		Status:        text(doc[FieldStatus]),
		AppliedDate:   datePtr(doc[FieldAppliedDate]),
		FollowUpDate:  datePtr(doc[FieldFollowUpDate]),
		SalaryMin:     numberPtr(doc[FieldSalaryMin]),
		SalaryMax:     numberPtr(doc[FieldSalaryMax]),
		ContactName:   textPtr(doc[FieldContactName]),
		ContactEmail:  textPtr(doc[FieldContactEmail]),
		ResumeVersion: textPtr(doc[FieldResumeVersion]),
		Priority:      textPtr(doc[FieldPriority]),
		Tags:          stringList(doc[FieldTags]),
		Notes:         textPtr(doc[FieldNotes]),
		UpdatedAt:     timestampText(doc[FieldUpdatedAt]),
	}
	if app.Tags == nil {
		app.Tags = []string{}
	}
	return app
}

func idText(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case fmt.Stringer:
		return id.String()
	case []byte:
		return string(id)
	default:
		return fmt.Sprint(id)
	}
}

func text(v any) string {
	if p := textPtr(v); p != nil {
		return *p
	}
	return ""
}

func textPtr(v any) *string {
	switch s := v.(type) {
	case string:
		return &s
	case *string:
		return s
	default:
		return nil
	}
}

func datePtr(v any) *string {
	var s string
	switch d := v.(type) {
	case string:
		s = d
	case Date:
		s = d.String()
	case time.Time:
		s = d.Format(DateLayout)
	default:
		return nil
	}
	return &s
}

func numberPtr(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

func timestampText(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	case string:
		return t
	default:
		return ""
	}
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return append([]string{}, list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
