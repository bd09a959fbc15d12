package llm

// Sampler contains the optional sampling parameters of a generation request.
// A nil field means "unset" and is omitted from the payload entirely.
type Sampler struct {
	TopK        *int     `json:"top_k,omitempty"`       // Top-k sampling
	TopP        *float64 `json:"top_p,omitempty"`       // Nucleus sampling threshold
	MinP        *float64 `json:"min_p,omitempty"`       // Minimum probability threshold
	Temperature *float64 `json:"temperature,omitempty"` // Creativity (0.0-2.0)
}

// IsEmpty reports whether no option is set.
func (s Sampler) IsEmpty() bool {
	return s.TopK == nil && s.TopP == nil && s.MinP == nil && s.Temperature == nil
}

// Map returns the set options keyed by their wire names.
func (s Sampler) Map() map[string]any {
	m := make(map[string]any, 4)
	if s.TopK != nil {
		m["top_k"] = *s.TopK
	}
	if s.TopP != nil {
		m["top_p"] = *s.TopP
	}
	if s.MinP != nil {
		m["min_p"] = *s.MinP
	}
	if s.Temperature != nil {
		m["temperature"] = *s.Temperature
	}
	return m
}
