package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ignite/jobtracker/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationError reports every problem found in a payload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func invalid(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

var (
	createSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewGoLoader(Document()))
	})
	updateSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewGoLoader(updateDocument()))
	})
)

// ParseCreate validates a create payload and decodes it.
func ParseCreate(body []byte) (domain.NewApplication, error) {
	var out domain.NewApplication
	s, err := createSchema()
	if err != nil {
		return out, fmt.Errorf("compiling create schema: %w", err)
	}
	if err := check(s, body); err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, invalid(err.Error())
	}
	return out, nil
}

// ParseUpdate validates a partial-update payload and decodes it, keeping
// absent members distinct from members sent as null.
func ParseUpdate(body []byte) (domain.ApplicationPatch, error) {
	var out domain.ApplicationPatch
	s, err := updateSchema()
	if err != nil {
		return out, fmt.Errorf("compiling update schema: %w", err)
	}
	if err := check(s, body); err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, invalid(err.Error())
	}
	return out, nil
}

func check(s *gojsonschema.Schema, body []byte) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return invalid("request body is required")
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return invalid("invalid JSON: " + err.Error())
	}
	if res.Valid() {
		return nil
	}
	problems := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		problems = append(problems, e.String())
	}
	return invalid(problems...)
}
