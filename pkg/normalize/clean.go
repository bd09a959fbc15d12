package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CleanString prepares model output for narrative use. Structured values are
// JSON-encoded first. Newlines and doubled backslashes are removed, smart
// quotes straightened, and a trailing partial sentence after the last period is
// dropped. The cut needs at least two periods in the text.
func CleanString(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	default:
		data, err := json.Marshal(t)
		if err != nil {
			s = fmt.Sprint(t)
		} else {
			s = string(data)
		}
	}

	s = strings.ReplaceAll(s, "\n", "")
	s = smartQuotes.Replace(s)
	s = strings.ReplaceAll(s, `\\`, "")

	if strings.Count(s, ".") >= 2 {
		s = s[:strings.LastIndex(s, ".")+1]
	}

	return s
}

// PlainText returns the string form of a normalized value: strings as-is,
// everything else as compact JSON.
func PlainText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
