package llm

// GenerateResponse represents a text-generation response (KoboldCpp-compatible).
type GenerateResponse struct {
	Results []Result `json:"results"`
}

// Result is one generated completion. Text is nil when the server omitted it.
type Result struct {
	Text *string `json:"text"`
}

// FirstText returns results[0].text and whether that path was present.
func (r *GenerateResponse) FirstText() (string, bool) {
	if r == nil || len(r.Results) == 0 || r.Results[0].Text == nil {
		return "", false
	}
	return *r.Results[0].Text, true
}
