package prompt

import (
	"strings"

	"github.com/papercomputeco/promptbench/pkg/llm"
)

// Request is everything needed to build and send one prompt.
type Request struct {
	TemplateName      string
	SystemInstruction string
	Instruction       string
	Content           string
	Files             *Files
	Sampler           llm.Sampler
}

// Render builds the prompt string for the request.
func (r Request) Render() (string, error) {
	return Render(r.TemplateName, r.SystemInstruction, r.Instruction, r.Content, r.Files)
}

// Render builds the prompt string for templateName. The concatenation order is:
// system part, user marker, instruction, content, attached files, end-of-turn
// marker, assistant marker.
func Render(templateName, systemInstruction, instruction, content string, files *Files) (string, error) {
	t, err := Lookup(templateName)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	if systemInstruction != "" {
		b.WriteString(t.System)
		b.WriteString(systemInstruction)
		b.WriteString("\n")
	}

	b.WriteString(t.User)
	b.WriteString(instruction)
	b.WriteString("\n")
	b.WriteString(content)
	b.WriteString("\n\nAttached files:\n")

	for _, f := range files.List() {
		b.WriteString("[FILE:")
		b.WriteString(f.Name)
		b.WriteString("]\n")
		b.WriteString(f.Content)
		b.WriteString("\n[/FILE]\n\n")
	}

	b.WriteString(t.EndTurn)
	b.WriteString(t.Assistant)

	return b.String(), nil
}
