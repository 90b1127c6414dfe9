// Package domain defines the core types of the job application tracker.
//
// Types in this package are pure value objects with no behavior beyond
// validation and conversion, no database dependencies, and no HTTP concerns.
// They are the shared language between handlers, the application service,
// and the document store backends.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON tags are allowed (they're metadata, not behavior)
//   - Conversion between stored documents and the public form lives here
package domain
