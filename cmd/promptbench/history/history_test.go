package historycmder

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/promptbench/pkg/archive"
)

var _ = Describe("History Command", func() {
	var (
		ctx    context.Context
		dbPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dbPath = filepath.Join(GinkgoT().TempDir(), "runs.db")
	})

	execute := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := NewHistoryCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	seed := func(records ...*archive.Record) {
		storer, err := archive.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer storer.Close()
		for _, r := range records {
			_, err := storer.Put(ctx, r)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	It("reports an empty archive", func() {
		out, err := execute("--archive", dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No archived runs."))
	})

	It("lists archived runs", func() {
		r := archive.NewRecord("Llama 3", "prompt", "plain\nanswer", "plain answer", true)
		seed(r)

		out, err := execute("--archive", dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("HASH"))
		Expect(out).To(ContainSubstring(r.Hash[:12]))
		Expect(out).To(ContainSubstring("Llama 3"))
		Expect(out).To(ContainSubstring("plain answer"))
	})

	It("shows one run by hash prefix", func() {
		r := archive.NewRecord("Yi", "prompt", `{"a":1}`, map[string]any{"a": float64(1)}, false)
		seed(r)

		out, err := execute("--archive", dbPath, r.Hash[:8])
		Expect(err).NotTo(HaveOccurred())

		var got archive.Record
		Expect(json.Unmarshal([]byte(out), &got)).To(Succeed())
		Expect(got.Hash).To(Equal(r.Hash))
		Expect(got.Normalized).To(Equal(map[string]any{"a": float64(1)}))
	})

	It("fails for an unknown hash", func() {
		seed()
		_, err := execute("--archive", dbPath, "ffff")
		Expect(err).To(MatchError(archive.ErrNotFound{Hash: "ffff"}))
	})

	It("requires an archive path", func() {
		_, err := execute()
		Expect(err).To(MatchError(ContainSubstring("no archive configured")))
	})
})
