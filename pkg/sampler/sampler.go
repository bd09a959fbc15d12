// Package sampler converts slider-style integer positions into optional
// sampling parameters. The minimum position of every slider means "do not send
// this option", never "send zero".
package sampler

import (
	"fmt"

	"github.com/papercomputeco/promptbench/pkg/llm"
)

// Slider describes one sampler control.
type Slider struct {
	Key   string
	Label string
	Min   int
	Max   int
	// Scale divides the position to get the wire value. Zero sends the integer as-is.
	Scale float64
}

var (
	TopK        = Slider{Key: "top_k", Label: "Top K", Min: 0, Max: 100}
	TopP        = Slider{Key: "top_p", Label: "Top P", Min: 0, Max: 100, Scale: 100}
	MinP        = Slider{Key: "min_p", Label: "Min P", Min: 0, Max: 100, Scale: 100}
	Temperature = Slider{Key: "temperature", Label: "Temperature", Min: 0, Max: 200, Scale: 100}
)

// Sliders lists every control in display order.
func Sliders() []Slider {
	return []Slider{TopK, TopP, MinP, Temperature}
}

// Validate checks that pos lies within the slider's range.
func (s Slider) Validate(pos int) error {
	if pos < s.Min || pos > s.Max {
		return fmt.Errorf("%s: position %d out of range [%d, %d]", s.Key, pos, s.Min, s.Max)
	}
	return nil
}

// Value returns the wire value for pos and false when pos is the minimum.
func (s Slider) Value(pos int) (float64, bool) {
	if pos <= s.Min {
		return 0, false
	}
	if s.Scale == 0 {
		return float64(pos), true
	}
	return float64(pos) / s.Scale, true
}

// Caption renders the slider caption shown next to the control.
func (s Slider) Caption(pos int) string {
	v, ok := s.Value(pos)
	if !ok {
		return s.Label + ": Off"
	}
	if s.Scale == 0 {
		return fmt.Sprintf("%s: %d", s.Label, pos)
	}
	return fmt.Sprintf("%s: %.2f", s.Label, v)
}

// Positions are raw slider positions. The zero value leaves every option unset.
type Positions struct {
	TopK        int `json:"top_k" toml:"top_k"`
	TopP        int `json:"top_p" toml:"top_p"`
	MinP        int `json:"min_p" toml:"min_p"`
	Temperature int `json:"temperature" toml:"temperature"`
}

// Settings validates the positions and builds the sampler payload fields.
func (p Positions) Settings() (llm.Sampler, error) {
	var out llm.Sampler

	for _, s := range Sliders() {
		if err := s.Validate(p.Position(s)); err != nil {
			return llm.Sampler{}, err
		}
	}

	if _, ok := TopK.Value(p.TopK); ok {
		k := p.TopK
		out.TopK = &k
	}
	if v, ok := TopP.Value(p.TopP); ok {
		out.TopP = &v
	}
	if v, ok := MinP.Value(p.MinP); ok {
		out.MinP = &v
	}
	if v, ok := Temperature.Value(p.Temperature); ok {
		out.Temperature = &v
	}

	return out, nil
}

// Captions returns the caption of every slider for the positions.
func (p Positions) Captions() []string {
	sliders := Sliders()
	captions := make([]string, 0, len(sliders))
	for _, s := range sliders {
		captions = append(captions, s.Caption(p.Position(s)))
	}
	return captions
}

// Position returns the position held for slider s, or 0 for an unknown key.
func (p Positions) Position(s Slider) int {
	switch s.Key {
	case TopK.Key:
		return p.TopK
	case TopP.Key:
		return p.TopP
	case MinP.Key:
		return p.MinP
	case Temperature.Key:
		return p.Temperature
	}
	return 0
}
