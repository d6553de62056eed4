package mcp

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/envectorhq/envector-mcp/pkg/canon"
	"github.com/envectorhq/envector-mcp/pkg/engine"
	testutils "github.com/envectorhq/envector-mcp/pkg/utils/test"
)

var _ = Describe("Index management tools", func() {
	var (
		mock      *testutils.MockEngine
		publisher *testutils.MockPublisher
		server    *Server
		ctx       context.Context
	)

	BeforeEach(func() {
		mock = testutils.NewMockEngine()
		publisher = testutils.NewMockPublisher()
		server = newTestServer(mock, nil, publisher)
		ctx = context.Background()
	})

	Describe("create_index", func() {
		It("defaults the index type to FLAT", func() {
			_, res, err := server.handleCreateIndex(ctx, nil, CreateIndexInput{
				IndexName: "idx",
				Dim:       128,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.OK).To(BeTrue())
			Expect(mock.Calls["create_index"]).To(Equal(1))
		})

		It("rejects an IVF_FLAT descriptor without tuning params before touching the engine", func() {
			_, _, err := server.handleCreateIndex(ctx, nil, CreateIndexInput{
				IndexName:   "idx",
				Dim:         128,
				IndexParams: engine.IndexParams{IndexType: "IVF_FLAT"},
			})

			Expect(err).To(HaveOccurred())
			Expect(canon.IsValidationError(err)).To(BeTrue())
			Expect(mock.TotalCalls()).To(BeZero())
		})

		It("accepts a fully-specified IVF_FLAT descriptor", func() {
			_, res, err := server.handleCreateIndex(ctx, nil, CreateIndexInput{
				IndexName: "idx",
				Dim:       128,
				IndexParams: engine.IndexParams{
					IndexType:     "IVF_FLAT",
					Nlist:         64,
					DefaultNprobe: 8,
				},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.OK).To(BeTrue())
		})

		It("rejects a non-positive dim", func() {
			_, _, err := server.handleCreateIndex(ctx, nil, CreateIndexInput{
				IndexName: "idx",
			})

			Expect(err).To(HaveOccurred())
			Expect(mock.TotalCalls()).To(BeZero())
		})
	})

	Describe("get_index_list", func() {
		It("returns the listing envelope", func() {
			mock.Results["list_indexes"] = []string{"a", "b"}

			_, res, err := server.handleIndexList(ctx, nil, IndexListInput{})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.OK).To(BeTrue())
			Expect(res.Results).To(Equal([]any{"a", "b"}))
		})
	})

	Describe("get_index_info", func() {
		It("requires an index name", func() {
			_, _, err := server.handleIndexInfo(ctx, nil, IndexInfoInput{})

			Expect(err).To(HaveOccurred())
			Expect(mock.TotalCalls()).To(BeZero())
		})

		It("returns the description envelope", func() {
			mock.Results["describe_index"] = map[string]any{"name": "idx", "dim": 3}

			_, res, err := server.handleIndexInfo(ctx, nil, IndexInfoInput{IndexName: "idx"})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.OK).To(BeTrue())
			Expect(mock.Calls["describe_index"]).To(Equal(1))
		})

		It("publishes an audit event naming the index", func() {
			_, _, err := server.handleIndexInfo(ctx, nil, IndexInfoInput{IndexName: "idx"})
			Expect(err).NotTo(HaveOccurred())

			events := publisher.Published()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Tool).To(Equal("get_index_info"))
			Expect(events[0].IndexName).To(Equal("idx"))
			Expect(events[0].EventID).NotTo(BeEmpty())
		})
	})
})
