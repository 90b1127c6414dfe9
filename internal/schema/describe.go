package schema

import "github.com/ignite/jobtracker/internal/domain"

// Model describes one stored entity for an external database viewer.
type Model struct {
	Name        string         `json:"name"`
	Collection  string         `json:"collection"`
	Schema      map[string]any `json:"schema"`
	Description string         `json:"description,omitempty"`
}

// Describe lists the entities this service stores. Each call returns fresh
// maps, so callers may modify the result.
func Describe() []Model {
	return []Model{
		{
			Name:        Name,
			Collection:  domain.Collection,
			Schema:      Document(),
			Description: Description,
		},
	}
}
