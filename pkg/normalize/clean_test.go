package normalize_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/promptbench/pkg/normalize"
)

var _ = Describe("CleanString", func() {
	It("keeps a single sentence followed by a fragment", func() {
		Expect(normalize.CleanString("Hello world. Trailing fragment")).To(Equal("Hello world. Trailing fragment"))
	})

	It("truncates through the last period", func() {
		Expect(normalize.CleanString("Sentence one. Sentence two. Trailing")).To(Equal("Sentence one. Sentence two."))
	})

	It("removes newlines, doubled backslashes and smart quotes", func() {
		Expect(normalize.CleanString("He said “hi”\nthen \\\\left.")).To(Equal(`He said "hi"then left.`))
	})

	It("encodes structured values before cleaning", func() {
		Expect(normalize.CleanString(map[string]any{"a": "b"})).To(Equal(`{"a":"b"}`))
	})

	It("returns an empty string for nil", func() {
		Expect(normalize.CleanString(nil)).To(BeEmpty())
	})
})

var _ = Describe("PlainText", func() {
	It("returns strings as-is", func() {
		Expect(normalize.PlainText("raw text")).To(Equal("raw text"))
	})

	It("encodes other values as compact JSON", func() {
		Expect(normalize.PlainText(map[string]any{"a": float64(1)})).To(Equal(`{"a":1}`))
		Expect(normalize.PlainText([]any{"x"})).To(Equal(`["x"]`))
	})
})
