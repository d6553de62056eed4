package mcp

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/envectorhq/envector-mcp/pkg/canon"
	"github.com/envectorhq/envector-mcp/pkg/engine"
	testutils "github.com/envectorhq/envector-mcp/pkg/utils/test"
)

// newTestServer wires a dispatcher around the mock engine for handler tests.
func newTestServer(mock *testutils.MockEngine, embedder *testutils.MockEmbedder, publisher *testutils.MockPublisher) *Server {
	facade, err := engine.NewFacade(mock, zap.NewNop())
	Expect(err).NotTo(HaveOccurred())

	c := Config{
		Facade: facade,
		Logger: zap.NewNop(),
	}
	if embedder != nil {
		c.Embedder = embedder
	}
	if publisher != nil {
		c.Publisher = publisher
	}

	server, err := NewServer(c)
	Expect(err).NotTo(HaveOccurred())
	return server
}

var _ = Describe("Insert tool", func() {
	var (
		mock      *testutils.MockEngine
		embedder  *testutils.MockEmbedder
		publisher *testutils.MockPublisher
		server    *Server
		ctx       context.Context
	)

	BeforeEach(func() {
		mock = testutils.NewMockEngine()
		embedder = testutils.NewMockEmbedder()
		publisher = testutils.NewMockPublisher()
		server = newTestServer(mock, embedder, publisher)
		ctx = context.Background()
	})

	It("rejects a call with neither vectors nor metadata before touching the engine", func() {
		_, _, err := server.handleInsert(ctx, nil, InsertInput{IndexName: "idx"})

		Expect(err).To(HaveOccurred())
		Expect(canon.IsValidationError(err)).To(BeTrue())
		Expect(mock.TotalCalls()).To(BeZero())
	})

	It("rejects a missing index name", func() {
		_, _, err := server.handleInsert(ctx, nil, InsertInput{
			Vectors: []any{0.1, 0.2},
		})

		Expect(err).To(HaveOccurred())
		Expect(mock.TotalCalls()).To(BeZero())
	})

	It("wraps a flat vector into a one-element batch", func() {
		mock.Results["insert"] = []string{"id-1"}

		_, res, err := server.handleInsert(ctx, nil, InsertInput{
			IndexName: "idx",
			Vectors:   []any{0.1, 0.2, 0.3},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.OK).To(BeTrue())
		Expect(mock.Inserted.IndexName).To(Equal("idx"))
		Expect(mock.Inserted.Vectors).To(Equal(canon.Batch{{0.1, 0.2, 0.3}}))
		Expect(mock.Inserted.Metadata).To(BeNil())
	})

	It("decodes a JSON-encoded string of vectors", func() {
		_, res, err := server.handleInsert(ctx, nil, InsertInput{
			IndexName: "idx",
			Vectors:   "[[0.1, 0.2], [0.3, 0.4]]",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.OK).To(BeTrue())
		Expect(mock.Inserted.Vectors).To(Equal(canon.Batch{{0.1, 0.2}, {0.3, 0.4}}))
	})

	It("rejects misaligned metadata before touching the engine", func() {
		_, _, err := server.handleInsert(ctx, nil, InsertInput{
			IndexName: "idx",
			Vectors:   []any{[]any{0.1}, []any{0.2}},
			Metadata:  []any{"only one"},
		})

		Expect(err).To(HaveOccurred())
		Expect(canon.IsValidationError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("does not match"))
		Expect(mock.TotalCalls()).To(BeZero())
	})

	It("passes aligned metadata through to the engine", func() {
		_, res, err := server.handleInsert(ctx, nil, InsertInput{
			IndexName: "idx",
			Vectors:   []any{[]any{0.1}, []any{0.2}},
			Metadata:  []any{"a", "b"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.OK).To(BeTrue())
		Expect(mock.Inserted.Metadata).To(Equal([]any{"a", "b"}))
	})

	It("embeds metadata items when vectors are absent", func() {
		_, res, err := server.handleInsert(ctx, nil, InsertInput{
			IndexName: "idx",
			Metadata:  []any{"first text", "second text"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.OK).To(BeTrue())
		Expect(embedder.BatchCalls).To(HaveLen(1))
		Expect(embedder.BatchCalls[0]).To(Equal([]string{"first text", "second text"}))
		Expect(mock.Inserted.Vectors).To(HaveLen(2))
		Expect(mock.Inserted.Vectors[0]).To(HaveLen(3))
		Expect(mock.Inserted.Metadata).To(Equal([]any{"first text", "second text"}))
	})

	It("JSON-encodes non-string metadata items for embedding", func() {
		_, _, err := server.handleInsert(ctx, nil, InsertInput{
			IndexName: "idx",
			Metadata:  []any{map[string]any{"title": "doc"}},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(embedder.BatchCalls).To(HaveLen(1))
		Expect(embedder.BatchCalls[0]).To(Equal([]string{`{"title":"doc"}`}))
	})

	It("rejects a metadata-only insert when no embedder is configured", func() {
		server = newTestServer(mock, nil, publisher)

		_, _, err := server.handleInsert(ctx, nil, InsertInput{
			IndexName: "idx",
			Metadata:  []any{"text"},
		})

		Expect(err).To(HaveOccurred())
		Expect(canon.IsValidationError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("embedder"))
		Expect(mock.TotalCalls()).To(BeZero())
	})

	It("returns a failure envelope when the engine rejects the insert", func() {
		mock.Err = engine.ErrIndexNotFound

		_, res, err := server.handleInsert(ctx, nil, InsertInput{
			IndexName: "missing",
			Vectors:   []any{0.1},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.OK).To(BeFalse())
		Expect(res.Error).To(ContainSubstring("index not found"))
	})

	It("publishes an audit event for both outcomes", func() {
		_, _, err := server.handleInsert(ctx, nil, InsertInput{
			IndexName: "idx",
			Vectors:   []any{0.1},
		})
		Expect(err).NotTo(HaveOccurred())

		_, _, err = server.handleInsert(ctx, nil, InsertInput{IndexName: "idx"})
		Expect(err).To(HaveOccurred())

		events := publisher.Published()
		Expect(events).To(HaveLen(2))
		Expect(events[0].Tool).To(Equal("insert"))
		Expect(events[0].OK).To(BeTrue())
		Expect(events[1].OK).To(BeFalse())
		Expect(events[1].Error).NotTo(BeEmpty())
	})
})
