package domain

// Collection is the document collection holding job applications.
const Collection = "jobapplication"

// Status values used by the UI. The set is open: any text is accepted.
const (
	StatusApplied      = "applied"
	StatusInterviewing = "interviewing"
	StatusOffer        = "offer"
	StatusRejected     = "rejected"
	StatusGhosted      = "ghosted"
	StatusSaved        = "saved"
)

// Priority values used by the UI. Like status, not enforced.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Document field names.
const (
	FieldCompany       = "company"
	FieldPosition      = "position"
	FieldLocation      = "location"
	FieldJobLink       = "job_link"
	FieldSource        = "source"
	FieldStatus        = "status"
	FieldAppliedDate   = "applied_date"
	FieldFollowUpDate  = "follow_up_date"
	FieldSalaryMin     = "salary_min"
	FieldSalaryMax     = "salary_max"
	FieldContactName   = "contact_name"
	FieldContactEmail  = "contact_email"
	FieldResumeVersion = "resume_version"
	FieldPriority      = "priority"
	FieldTags          = "tags"
	FieldNotes         = "notes"
	FieldUpdatedAt     = "updated_at"
)

// JobApplication is the public form of a stored application: identifier as
// text under "id", dates and timestamps as ISO-8601 text.
type JobApplication struct {
	ID            string   `json:"id"`
	Company       string   `json:"company"`
	Position      string   `json:"position"`
	Location      *string  `json:"location,omitempty"`
	JobLink       *string  `json:"job_link,omitempty"`
	Source        *string  `json:"source,omitempty"`
	Status        string   `json:"status"`
	AppliedDate   *string  `json:"applied_date,omitempty"`
	FollowUpDate  *string  `json:"follow_up_date,omitempty"`
	SalaryMin     *float64 `json:"salary_min,omitempty"`
	SalaryMax     *float64 `json:"salary_max,omitempty"`
	ContactName   *string  `json:"contact_name,omitempty"`
	ContactEmail  *string  `json:"contact_email,omitempty"`
	ResumeVersion *string  `json:"resume_version,omitempty"`
	Priority      *string  `json:"priority,omitempty"`
	Tags          []string `json:"tags"`
	Notes         *string  `json:"notes,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
}

// NewApplication is a validated create payload. Nil pointers mean the member
// was absent or null; Priority keeps the distinction because an absent
// priority defaults to medium while an explicit null stays empty.
type NewApplication struct {
	Company       string           `json:"company"`
	Position      string           `json:"position"`
	Location      *string          `json:"location"`
	JobLink       *string          `json:"job_link"`
	Source        *string          `json:"source"`
	Status        *string          `json:"status"`
	AppliedDate   *Date            `json:"applied_date"`
	FollowUpDate  *Date            `json:"follow_up_date"`
	SalaryMin     *float64         `json:"salary_min"`
	SalaryMax     *float64         `json:"salary_max"`
	ContactName   *string          `json:"contact_name"`
	ContactEmail  *string          `json:"contact_email"`
	ResumeVersion *string          `json:"resume_version"`
	Priority      Optional[string] `json:"priority"`
	Tags          []string         `json:"tags"`
	Notes         *string          `json:"notes"`
}

// Document converts the payload into a store document. Server-side defaults
// are not applied here; a null priority is kept as a nil value so the caller
// can tell it apart from an absent one.
func (a NewApplication) Document() Document {
	doc := Document{
		FieldCompany:  a.Company,
		FieldPosition: a.Position,
	}
	putString(doc, FieldLocation, a.Location)
	putString(doc, FieldJobLink, a.JobLink)
	putString(doc, FieldSource, a.Source)
	putString(doc, FieldStatus, a.Status)
	putDate(doc, FieldAppliedDate, a.AppliedDate)
	putDate(doc, FieldFollowUpDate, a.FollowUpDate)
	putNumber(doc, FieldSalaryMin, a.SalaryMin)
	putNumber(doc, FieldSalaryMax, a.SalaryMax)
	putString(doc, FieldContactName, a.ContactName)
	putString(doc, FieldContactEmail, a.ContactEmail)
	putString(doc, FieldResumeVersion, a.ResumeVersion)
	putString(doc, FieldNotes, a.Notes)
	if a.Priority.Set {
		if a.Priority.Null {
			doc[FieldPriority] = nil
		} else {
			doc[FieldPriority] = a.Priority.Value
		}
	}
	if a.Tags != nil {
		doc[FieldTags] = append([]string(nil), a.Tags...)
	}
	return doc
}

// ApplicationPatch is a validated partial update. Every field is tri-state:
// unset fields are left alone, null fields are cleared, valued fields are
// overwritten.
type ApplicationPatch struct {
	Company       Optional[string]   `json:"company"`
	Position      Optional[string]   `json:"position"`
	Location      Optional[string]   `json:"location"`
	JobLink       Optional[string]   `json:"job_link"`
	Source        Optional[string]   `json:"source"`
	Status        Optional[string]   `json:"status"`
	AppliedDate   Optional[Date]     `json:"applied_date"`
	FollowUpDate  Optional[Date]     `json:"follow_up_date"`
	SalaryMin     Optional[float64]  `json:"salary_min"`
	SalaryMax     Optional[float64]  `json:"salary_max"`
	ContactName   Optional[string]   `json:"contact_name"`
	ContactEmail  Optional[string]   `json:"contact_email"`
	ResumeVersion Optional[string]   `json:"resume_version"`
	Priority      Optional[string]   `json:"priority"`
	Tags          Optional[[]string] `json:"tags"`
	Notes         Optional[string]   `json:"notes"`
}

// Changes translates the patch into a store-level merge patch.
func (p ApplicationPatch) Changes() Patch {
	out := Patch{Set: Document{}}
	collect(&out, FieldCompany, p.Company, asIs[string])
	collect(&out, FieldPosition, p.Position, asIs[string])
	collect(&out, FieldLocation, p.Location, asIs[string])
	collect(&out, FieldJobLink, p.JobLink, asIs[string])
	collect(&out, FieldSource, p.Source, asIs[string])
	collect(&out, FieldStatus, p.Status, asIs[string])
	collect(&out, FieldAppliedDate, p.AppliedDate, dateText)
	collect(&out, FieldFollowUpDate, p.FollowUpDate, dateText)
	collect(&out, FieldSalaryMin, p.SalaryMin, asIs[float64])
	collect(&out, FieldSalaryMax, p.SalaryMax, asIs[float64])
	collect(&out, FieldContactName, p.ContactName, asIs[string])
	collect(&out, FieldContactEmail, p.ContactEmail, asIs[string])
	collect(&out, FieldResumeVersion, p.ResumeVersion, asIs[string])
	collect(&out, FieldPriority, p.Priority, asIs[string])
	collect(&out, FieldTags, p.Tags, func(tags []string) any {
		return append([]string{}, tags...)
	})
	collect(&out, FieldNotes, p.Notes, asIs[string])
	return out
}

// IsEmpty reports whether no field was sent at all.
func (p ApplicationPatch) IsEmpty() bool {
	return p.Changes().Empty()
}

func collect[T any](p *Patch, key string, o Optional[T], conv func(T) any) {
	switch {
	case !o.Set:
	case o.Null:
		p.Unset = append(p.Unset, key)
	default:
		p.Set[key] = conv(o.Value)
	}
}

func asIs[T any](v T) any { return v }

func dateText(d Date) any { return d.String() }

func putString(doc Document, key string, v *string) {
	if v != nil {
		doc[key] = *v
	}
}

func putNumber(doc Document, key string, v *float64) {
	if v != nil {
		doc[key] = *v
	}
}

func putDate(doc Document, key string, v *Date) {
	if v != nil {
		doc[key] = v.String()
	}
}
