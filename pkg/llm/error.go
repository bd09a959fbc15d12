// Package llm provides the wire representations of text-generation API requests
// and responses exchanged with a locally hosted model server.
package llm

// ErrorResponse represents an error returned to shell clients.
type ErrorResponse struct {
	Error string `json:"error"`
}
