// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Every handler should use these helpers instead of writing raw
// http.ResponseWriter calls. Errors always carry a "detail" message, and
// validation failures add an "errors" list, so clients can read one shape.
package httputil
