package prompt

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// Encoding selects how an attachment's bytes are placed into the prompt.
type Encoding string

const (
	EncodingRaw    Encoding = "raw"
	EncodingBase64 Encoding = "base64"
)

// ParseEncoding validates an encoding name. Empty selects base64.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingBase64:
		return EncodingBase64, nil
	case EncodingRaw:
		return EncodingRaw, nil
	default:
		return "", fmt.Errorf("unknown attachment encoding %q (want raw or base64)", s)
	}
}

// File is one attachment.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Files is an insertion-ordered collection of attachments keyed by name.
// Adding an existing name replaces its content without moving it.
type Files struct {
	items []File
	index map[string]int
}

// NewFiles builds a collection from files in order.
func NewFiles(files ...File) *Files {
	f := &Files{}
	for _, file := range files {
		f.Add(file.Name, file.Content)
	}
	return f
}

// Add appends or replaces the attachment called name.
func (f *Files) Add(name, content string) {
	if f.index == nil {
		f.index = make(map[string]int)
	}
	if i, ok := f.index[name]; ok {
		f.items[i].Content = content
		return
	}
	f.index[name] = len(f.items)
	f.items = append(f.items, File{Name: name, Content: content})
}

// Len returns the number of attachments.
func (f *Files) Len() int {
	if f == nil {
		return 0
	}
	return len(f.items)
}

// List returns a copy of the attachments in insertion order.
func (f *Files) List() []File {
	if f == nil {
		return nil
	}
	out := make([]File, len(f.items))
	copy(out, f.items)
	return out
}

// ReadAttachment loads path from disk and returns it as an attachment named
// after the file's base name.
func ReadAttachment(path string, enc Encoding) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read attachment: %w", err)
	}

	content := string(data)
	if enc != EncodingRaw {
		content = base64.StdEncoding.EncodeToString(data)
	}

	return File{Name: filepath.Base(path), Content: content}, nil
}
