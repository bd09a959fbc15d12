package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/papercomputeco/promptbench/pkg/archive"
	"github.com/papercomputeco/promptbench/pkg/dispatch"
	"github.com/papercomputeco/promptbench/pkg/job"
	"github.com/papercomputeco/promptbench/pkg/llm"
	"github.com/papercomputeco/promptbench/pkg/prompt"
)

// stubDispatcher returns canned text and remembers the prompt it received.
type stubDispatcher struct {
	text   string
	err    error
	prompt string
	calls  int
}

func (s *stubDispatcher) Dispatch(_ context.Context, p string, _ int, _ llm.Sampler) (string, error) {
	s.calls++
	s.prompt = p
	return s.text, s.err
}

var _ = Describe("Runner", func() {
	var (
		ctx    context.Context
		dir    string
		prefix string
		req    prompt.Request
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		prefix = filepath.Join(dir, "answer")
		req = prompt.Request{
			TemplateName: "ChatML",
			Instruction:  "Extract",
			Content:      "text",
			Files:        prompt.NewFiles(prompt.File{Name: "a.txt", Content: "AAA"}),
		}
	})

	readFile := func(path string) string {
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		return string(data)
	}

	It("renders, dispatches, normalizes and writes both artifacts", func() {
		stub := &stubDispatcher{text: "```json\n{\"name\": \"Ada\"}\n```"}
		runner := job.NewRunner(stub, nil, zap.NewNop())

		out := runner.Run(ctx, job.Job{Request: req, OutputPrefix: prefix})
		Expect(out.Err).NotTo(HaveOccurred())
		Expect(stub.prompt).To(ContainSubstring("[FILE:a.txt]\nAAA\n[/FILE]"))
		Expect(out.Response.Value).To(Equal(map[string]any{"name": "Ada"}))

		structured, plain := job.ArtifactPaths(prefix)
		Expect(out.Artifacts).To(Equal([]string{structured, plain}))
		Expect(out.Message).To(Equal("Response saved to " + structured + " and " + plain))

		var decoded map[string]any
		Expect(json.Unmarshal([]byte(readFile(structured)), &decoded)).To(Succeed())
		Expect(decoded).To(Equal(map[string]any{"name": "Ada"}))
		Expect(readFile(plain)).To(Equal(`{"name":"Ada"}`))
	})

	It("persists degraded text as a JSON string and plain text", func() {
		stub := &stubDispatcher{text: "just prose"}
		out := job.NewRunner(stub, nil, nil).Run(ctx, job.Job{Request: req, OutputPrefix: prefix})

		Expect(out.Err).NotTo(HaveOccurred())
		Expect(out.Response.Degraded).To(BeTrue())
		Expect(out.Message).To(HaveSuffix("(kept as plain text)"))

		structured, plain := job.ArtifactPaths(prefix)
		Expect(readFile(structured)).To(Equal("\"just prose\"\n"))
		Expect(readFile(plain)).To(Equal("just prose"))
	})

	It("overwrites existing artifacts", func() {
		structured, _ := job.ArtifactPaths(prefix)
		Expect(os.WriteFile(structured, []byte("old contents that are longer"), 0o644)).To(Succeed())

		out := job.NewRunner(&stubDispatcher{text: "[1]"}, nil, nil).Run(ctx, job.Job{Request: req, OutputPrefix: prefix})
		Expect(out.Err).NotTo(HaveOccurred())
		Expect(readFile(structured)).To(Equal("[\n  1\n]\n"))
	})

	It("reports an unknown template without dispatching", func() {
		stub := &stubDispatcher{text: "unused"}
		req.TemplateName = "Nope"

		out := job.NewRunner(stub, nil, nil).Run(ctx, job.Job{Request: req, OutputPrefix: prefix})
		Expect(out.Err).To(MatchError(prompt.ErrUnknownTemplate{Name: "Nope"}))
		Expect(out.Message).To(Equal("Error: unknown template: Nope"))
		Expect(stub.calls).To(Equal(0))
	})

	It("writes nothing when the server returns HTTP 500", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "model crashed")
		}))
		defer server.Close()

		client := dispatch.New(dispatch.Config{BaseURL: server.URL}, zap.NewNop())
		out := job.NewRunner(client, nil, nil).Run(ctx, job.Job{Request: req, OutputPrefix: prefix})

		var statusErr dispatch.ErrHTTPStatus
		Expect(errors.As(out.Err, &statusErr)).To(BeTrue())
		Expect(statusErr.StatusCode).To(Equal(500))
		Expect(out.Message).To(HavePrefix("Error: server returned HTTP 500"))

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("surfaces write failures for missing directories", func() {
		missing := filepath.Join(dir, "no", "such", "dir", "answer")
		out := job.NewRunner(&stubDispatcher{text: "{}"}, nil, nil).Run(ctx, job.Job{Request: req, OutputPrefix: missing})

		Expect(out.Err).To(HaveOccurred())
		Expect(out.Message).To(HavePrefix("Error: write "))
	})

	It("skips artifacts when no prefix is given", func() {
		out := job.NewRunner(&stubDispatcher{text: "{}"}, nil, nil).Run(ctx, job.Job{Request: req})
		Expect(out.Err).NotTo(HaveOccurred())
		Expect(out.Artifacts).To(BeEmpty())
		Expect(out.Message).To(Equal("Response received"))
	})

	It("logs whether the server's own sampling defaults apply", func() {
		core, logs := observer.New(zap.InfoLevel)
		runner := job.NewRunner(&stubDispatcher{text: "{}"}, nil, zap.New(core))

		runner.Run(ctx, job.Job{Request: req})
		temp := 0.7
		req.Sampler = llm.Sampler{Temperature: &temp}
		runner.Run(ctx, job.Job{Request: req})

		entries := logs.FilterMessage("dispatching prompt").All()
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].ContextMap()).To(HaveKeyWithValue("server_sampling_defaults", true))
		Expect(entries[1].ContextMap()).To(HaveKeyWithValue("server_sampling_defaults", false))
	})

	It("archives the run when a storer is configured", func() {
		storer := archive.NewMemoryStorer()
		out := job.NewRunner(&stubDispatcher{text: `{"a":1}`}, storer, nil).Run(ctx, job.Job{Request: req})
		Expect(out.Err).NotTo(HaveOccurred())
		Expect(out.RecordHash).NotTo(BeEmpty())

		record, err := storer.Get(ctx, out.RecordHash)
		Expect(err).NotTo(HaveOccurred())
		Expect(record.Template).To(Equal("ChatML"))
		Expect(record.Prompt).To(Equal(out.Prompt))
		Expect(record.Raw).To(Equal(`{"a":1}`))
	})

	Describe("Start", func() {
		It("delivers exactly one outcome and closes the channel", func() {
			done := job.NewRunner(&stubDispatcher{text: "{}"}, nil, nil).Start(ctx, job.Job{Request: req})

			var out job.Outcome
			Eventually(done).Should(Receive(&out))
			Expect(out.Err).NotTo(HaveOccurred())
			Eventually(done).Should(BeClosed())
		})

		It("delivers failures as outcomes", func() {
			stub := &stubDispatcher{err: dispatch.ErrNetwork{URL: "http://x", Err: errors.New("refused")}}
			done := job.NewRunner(stub, nil, nil).Start(ctx, job.Job{Request: req})

			var out job.Outcome
			Eventually(done).Should(Receive(&out))
			Expect(out.Message).To(Equal("Error: network error calling http://x: refused"))
		})
	})
})
