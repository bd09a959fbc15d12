package archive_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/promptbench/pkg/archive"
)

var _ = Describe("Record", func() {
	It("produces consistent hashes for the same run", func() {
		a := archive.NewRecord("ChatML", "prompt", "raw", "raw", true)
		b := archive.NewRecord("ChatML", "prompt", "raw", "raw", true)
		Expect(a.Hash).To(Equal(b.Hash))
		Expect(a.Hash).To(HaveLen(64))
	})

	It("produces different hashes for different output", func() {
		a := archive.NewRecord("ChatML", "prompt", "one", "one", true)
		b := archive.NewRecord("ChatML", "prompt", "two", "two", true)
		Expect(a.Hash).NotTo(Equal(b.Hash))
	})
})

// storerContract runs the same behaviour checks against every Storer.
func storerContract(newStorer func() archive.Storer) {
	var (
		storer archive.Storer
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		storer = newStorer()
	})

	AfterEach(func() {
		Expect(storer.Close()).To(Succeed())
	})

	It("stores and retrieves a record", func() {
		r := archive.NewRecord("Yi", "p", `{"a":1}`, map[string]any{"a": float64(1)}, false)

		isNew, err := storer.Put(ctx, r)
		Expect(err).NotTo(HaveOccurred())
		Expect(isNew).To(BeTrue())

		got, err := storer.Get(ctx, r.Hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Hash).To(Equal(r.Hash))
		Expect(got.Template).To(Equal("Yi"))
		Expect(got.Raw).To(Equal(`{"a":1}`))
		Expect(got.Normalized).To(Equal(map[string]any{"a": float64(1)}))
		Expect(got.Degraded).To(BeFalse())
	})

	It("deduplicates identical records", func() {
		r := archive.NewRecord("Yi", "p", "r", "r", true)

		_, err := storer.Put(ctx, r)
		Expect(err).NotTo(HaveOccurred())
		isNew, err := storer.Put(ctx, archive.NewRecord("Yi", "p", "r", "r", true))
		Expect(err).NotTo(HaveOccurred())
		Expect(isNew).To(BeFalse())

		records, err := storer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
	})

	It("lists newest first", func() {
		older := archive.NewRecord("Yi", "p", "old", "old", true)
		older.CreatedAt = time.Now().Add(-time.Hour).UTC()
		newer := archive.NewRecord("Yi", "p", "new", "new", true)

		_, err := storer.Put(ctx, older)
		Expect(err).NotTo(HaveOccurred())
		_, err = storer.Put(ctx, newer)
		Expect(err).NotTo(HaveOccurred())

		records, err := storer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
		Expect(records[0].Raw).To(Equal("new"))
		Expect(records[1].Raw).To(Equal("old"))
	})

	It("returns ErrNotFound for a missing hash", func() {
		_, err := storer.Get(ctx, "nonexistent")
		Expect(err).To(MatchError(archive.ErrNotFound{Hash: "nonexistent"}))
	})

	It("rejects nil records", func() {
		_, err := storer.Put(ctx, nil)
		Expect(err).To(HaveOccurred())
	})

	It("returns an empty list for an empty store", func() {
		records, err := storer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())
	})
}

var _ = Describe("MemoryStorer", func() {
	storerContract(func() archive.Storer { return archive.NewMemoryStorer() })
})

var _ = Describe("SQLiteStorer", func() {
	storerContract(func() archive.Storer {
		s, err := archive.NewSQLiteStorer(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return s
	})

	It("creates the database file", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "runs.db")

		s, err := archive.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})
})
