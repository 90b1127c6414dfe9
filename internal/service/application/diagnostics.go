package application

import "context"

// maxDiagnosticCollections caps the collection names reported.
const maxDiagnosticCollections = 10

// maxDiagnosticError caps error text echoed back by diagnostics.
const maxDiagnosticError = 50

// Diagnostics is the database status report served by the test endpoint.
type Diagnostics struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      string   `json:"database_url"`
	DatabaseName     string   `json:"database_name"`
	ConnectionStatus string   `json:"connection_status"`
	Store            string   `json:"store,omitempty"`
	Collections      []string `json:"collections"`
}

// Diagnose reports whether the store is attached and reachable. It never
// fails: problems are described in the report. The caller fills in the
// configuration fields it knows about.
func (s *Service) Diagnose(ctx context.Context) Diagnostics {
	d := Diagnostics{
		Backend:          "✅ Running",
		Database:         "❌ Not Available",
		ConnectionStatus: "Not Connected",
		Collections:      []string{},
	}
	if !s.Configured() {
		d.Database = "⚠️  Available but not initialized"
		return d
	}

	d.Database = "✅ Available"
	d.ConnectionStatus = "Connected"
	d.Store = s.store.Name()

	names, err := s.store.CollectionNames(ctx)
	if err != nil {
		d.Database = "⚠️  Connected but Error: " + truncate(err.Error(), maxDiagnosticError)
		return d
	}
	if len(names) > maxDiagnosticCollections {
		names = names[:maxDiagnosticCollections]
	}
	d.Collections = append(d.Collections, names...)
	d.Database = "✅ Connected & Working"
	return d
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
