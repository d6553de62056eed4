package sqlitevec_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/envectorhq/envector-mcp/pkg/canon"
	"github.com/envectorhq/envector-mcp/pkg/engine"
	"github.com/envectorhq/envector-mcp/pkg/engine/sqlitevec"
)

func flatDescriptor(name string, dim int) engine.IndexDescriptor {
	return engine.IndexDescriptor{
		Name:        name,
		Dim:         dim,
		IndexParams: engine.IndexParams{IndexType: engine.IndexTypeFlat},
	}
}

var _ = Describe("Engine", func() {
	var (
		eng    *sqlitevec.Engine
		logger *zap.Logger
		ctx    context.Context
	)

	BeforeEach(func() {
		logger = zap.NewNop()
		ctx = context.Background()

		var err error
		eng, err = sqlitevec.NewEngine(sqlitevec.Config{DBPath: ":memory:"}, logger)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(eng.Close()).To(Succeed())
	})

	Describe("NewEngine", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.NewEngine(sqlitevec.Config{DBPath: ""}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("should return an error when the logger is nil", func() {
			_, err := sqlitevec.NewEngine(sqlitevec.Config{DBPath: ":memory:"}, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("CreateIndex", func() {
		It("creates an index and reports it in the listing", func() {
			_, err := eng.CreateIndex(ctx, flatDescriptor("docs", 4))
			Expect(err).NotTo(HaveOccurred())

			names, err := eng.ListIndexes(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{"docs"}))
		})

		It("rejects a duplicate index", func() {
			_, err := eng.CreateIndex(ctx, flatDescriptor("docs", 4))
			Expect(err).NotTo(HaveOccurred())

			_, err = eng.CreateIndex(ctx, flatDescriptor("docs", 4))
			Expect(err).To(MatchError(engine.ErrIndexExists))
		})

		It("rejects index names unsafe for table DDL", func() {
			_, err := eng.CreateIndex(ctx, flatDescriptor("docs; DROP TABLE indexes", 4))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DescribeIndex", func() {
		It("returns the stored descriptor and count", func() {
			_, err := eng.CreateIndex(ctx, engine.IndexDescriptor{
				Name: "docs",
				Dim:  4,
				IndexParams: engine.IndexParams{
					IndexType:     engine.IndexTypeIVFFlat,
					Nlist:         64,
					DefaultNprobe: 8,
				},
			})
			Expect(err).NotTo(HaveOccurred())

			info, err := eng.DescribeIndex(ctx, "docs")
			Expect(err).NotTo(HaveOccurred())

			detail := info.(map[string]any)
			Expect(detail["name"]).To(Equal("docs"))
			Expect(detail["dim"]).To(Equal(4))
			Expect(detail["count"]).To(Equal(int64(0)))

			params := detail["index_params"].(engine.IndexParams)
			Expect(params.IndexType).To(Equal(engine.IndexTypeIVFFlat))
			Expect(params.Nlist).To(Equal(64))
		})

		It("returns ErrIndexNotFound for an unknown index", func() {
			_, err := eng.DescribeIndex(ctx, "missing")
			Expect(err).To(MatchError(engine.ErrIndexNotFound))
		})
	})

	Describe("Insert", func() {
		BeforeEach(func() {
			_, err := eng.CreateIndex(ctx, flatDescriptor("docs", 4))
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns one generated ID per vector", func() {
			result, err := eng.Insert(ctx, "docs", canon.Batch{
				{0.1, 0.1, 0.1, 0.1},
				{0.2, 0.2, 0.2, 0.2},
			}, nil)
			Expect(err).NotTo(HaveOccurred())

			ids := result.([]string)
			Expect(ids).To(HaveLen(2))
			Expect(ids[0]).NotTo(Equal(ids[1]))
		})

		It("rejects a dimension mismatch", func() {
			_, err := eng.Insert(ctx, "docs", canon.Batch{{0.1, 0.2}}, nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("dim"))
		})

		It("rejects an unknown index", func() {
			_, err := eng.Insert(ctx, "missing", canon.Batch{{0.1, 0.1, 0.1, 0.1}}, nil)
			Expect(err).To(MatchError(engine.ErrIndexNotFound))
		})

		It("updates the described count", func() {
			_, err := eng.Insert(ctx, "docs", canon.Batch{{0.1, 0.1, 0.1, 0.1}}, nil)
			Expect(err).NotTo(HaveOccurred())

			info, err := eng.DescribeIndex(ctx, "docs")
			Expect(err).NotTo(HaveOccurred())
			Expect(info.(map[string]any)["count"]).To(Equal(int64(1)))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			_, err := eng.CreateIndex(ctx, flatDescriptor("docs", 4))
			Expect(err).NotTo(HaveOccurred())

			_, err = eng.Insert(ctx, "docs", canon.Batch{
				{0.1, 0.1, 0.1, 0.1},
				{0.2, 0.2, 0.2, 0.2},
				{0.3, 0.3, 0.3, 0.3},
				{0.4, 0.4, 0.4, 0.4},
				{0.5, 0.5, 0.5, 0.5},
			}, []any{
				map[string]any{"n": 1},
				map[string]any{"n": 2},
				map[string]any{"n": 3},
				map[string]any{"n": 4},
				map[string]any{"n": 5},
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the closest documents first", func() {
			result, err := eng.Search(ctx, "docs", canon.Batch{{0.3, 0.3, 0.3, 0.3}}, 3)
			Expect(err).NotTo(HaveOccurred())

			hits := result.([]any)
			Expect(hits).To(HaveLen(3))

			top := hits[0].(map[string]any)
			Expect(top["metadata"]).To(Equal(map[string]any{"n": float64(3)}))
			Expect(top["id"]).NotTo(BeEmpty())
		})

		It("returns similarity scores in descending order", func() {
			result, err := eng.Search(ctx, "docs", canon.Batch{{0.3, 0.3, 0.3, 0.3}}, 5)
			Expect(err).NotTo(HaveOccurred())

			hits := result.([]any)
			for i := 1; i < len(hits); i++ {
				prev := hits[i-1].(map[string]any)["score"].(float64)
				cur := hits[i].(map[string]any)["score"].(float64)
				Expect(prev).To(BeNumerically(">=", cur))
			}
		})

		It("nests results per query for a multi-vector batch", func() {
			result, err := eng.Search(ctx, "docs", canon.Batch{
				{0.1, 0.1, 0.1, 0.1},
				{0.5, 0.5, 0.5, 0.5},
			}, 1)
			Expect(err).NotTo(HaveOccurred())

			perQuery := result.([]any)
			Expect(perQuery).To(HaveLen(2))

			first := perQuery[0].([]any)[0].(map[string]any)
			second := perQuery[1].([]any)[0].(map[string]any)
			Expect(first["metadata"]).To(Equal(map[string]any{"n": float64(1)}))
			Expect(second["metadata"]).To(Equal(map[string]any{"n": float64(5)}))
		})

		It("returns an error for an unknown index", func() {
			_, err := eng.Search(ctx, "missing", canon.Batch{{0.1, 0.1, 0.1, 0.1}}, 1)
			Expect(err).To(MatchError(engine.ErrIndexNotFound))
		})
	})
})
