// Package archive is a content-addressed log of finished prompt runs.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Record is one finished run. Identical (template, prompt, raw) triples share a
// hash, so repeating a run with the same output deduplicates.
type Record struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	Template string `json:"template"`
	Prompt   string `json:"prompt"`
	Raw      string `json:"raw"`

	// Normalized is the normalized response value
	Normalized any  `json:"normalized"`
	Degraded   bool `json:"degraded"`

	CreatedAt time.Time `json:"created_at"`
}

type hashInput struct {
	Template string `json:"template"`
	Prompt   string `json:"prompt"`
	Raw      string `json:"raw"`
}

// NewRecord creates a record with the computed hash.
func NewRecord(template, prompt, raw string, normalized any, degraded bool) *Record {
	r := &Record{
		Template:   template,
		Prompt:     prompt,
		Raw:        raw,
		Normalized: normalized,
		Degraded:   degraded,
		CreatedAt:  time.Now().UTC(),
	}
	r.Hash = r.computeHash()
	return r
}

func (r *Record) computeHash() string {
	// Canonical JSON encoding for deterministic hashing
	data, err := json.Marshal(hashInput{
		Template: r.Template,
		Prompt:   r.Prompt,
		Raw:      r.Raw,
	})
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
