package templatescmder

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/promptbench/pkg/prompt"
)

var _ = Describe("Templates Command", func() {
	execute := func(args ...string) string {
		var out bytes.Buffer
		cmd := NewTemplatesCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		Expect(cmd.Execute()).To(Succeed())
		return out.String()
	}

	It("lists every template name", func() {
		lines := strings.Split(strings.TrimSpace(execute()), "\n")
		Expect(lines).To(HaveLen(9))
		Expect(lines).To(Equal(prompt.Names()))
	})

	It("prints literal markers with --show", func() {
		out := execute("--show")
		Expect(out).To(ContainSubstring(`user:      "<|im_start|>user\n"`))
		Expect(out).To(ContainSubstring(`end turn:  "<|eot_id|>"`))
	})
})
