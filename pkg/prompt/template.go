// Package prompt renders model-specific prompt strings from a fixed catalog of
// chat templates.
package prompt

// Template holds the literal turn markers of one model family.
// EndTurn is optional and empty when the family has no explicit end-of-turn token.
type Template struct {
	Name      string `json:"name"`
	System    string `json:"system"`
	User      string `json:"user"`
	Assistant string `json:"assistant"`
	EndTurn   string `json:"end_turn,omitempty"`
}

// catalog is the read-only template table. Markers must stay byte-for-byte
// identical since they match each model's tokenizer.
var catalog = map[string]Template{
	"Alpaca": {
		User:      "\n\n### Instruction:\n\n",
		Assistant: "\n\n### Response:\n\n",
	},
	"Vicuna": {
		User:      "### Human: ",
		Assistant: "\n### Assistant: ",
	},
	"Llama 2": {
		User:      "[INST] ",
		Assistant: " [/INST]",
	},
	"Llama 3": {
		User:      "<|start_header_id|>user<|end_header_id|>\n\n",
		Assistant: "<|start_header_id|>assistant<|end_header_id|>\n\n",
		EndTurn:   "<|eot_id|>",
	},
	"Phi-3": {
		User:      "<|end|><|user|>\n",
		Assistant: "<end_of_turn><|end|><|assistant|>\n",
	},
	"Mistral": {
		User:      "\n[INST] ",
		Assistant: " [/INST]\n",
	},
	"Yi": {
		User:      "<|user|>",
		Assistant: "<|assistant|>",
	},
	"ChatML": {
		User:      "<|im_start|>user\n",
		Assistant: "<|im_end|>\n<|im_start|>assistant\n",
	},
	"WizardLM": {
		User:      "input:\n",
		Assistant: "output\n",
	},
}

// order is the presentation order of the catalog in the shells.
var order = []string{
	"Mistral", "Vicuna", "Llama 3", "ChatML", "Phi-3", "Yi", "WizardLM", "Alpaca", "Llama 2",
}

// ErrUnknownTemplate is returned when a template name is not in the catalog.
type ErrUnknownTemplate struct {
	Name string
}

func (e ErrUnknownTemplate) Error() string {
	return "unknown template: " + e.Name
}

// Lookup returns the template registered under name.
func Lookup(name string) (Template, error) {
	t, ok := catalog[name]
	if !ok {
		return Template{}, ErrUnknownTemplate{Name: name}
	}
	t.Name = name
	return t, nil
}

// Names returns every catalog name in presentation order.
func Names() []string {
	names := make([]string, len(order))
	copy(names, order)
	return names
}

// Templates returns every catalog entry in presentation order.
func Templates() []Template {
	out := make([]Template, 0, len(order))
	for _, name := range order {
		t, _ := Lookup(name)
		out = append(out, t)
	}
	return out
}
