// Package qdrant implements the engine call interface against a Qdrant
// server over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/envectorhq/envector-mcp/pkg/canon"
	"github.com/envectorhq/envector-mcp/pkg/engine"
)

// maxGrpcMessageSize sizes gRPC frames for large vector batches.
const maxGrpcMessageSize = 64 * 1024 * 1024

// payloadField is the payload key metadata items are stored under.
const payloadField = "metadata"

// Config holds configuration for the Qdrant engine.
type Config struct {
	// Host is the Qdrant gRPC host.
	Host string

	// Port is the Qdrant gRPC port (typically 6334).
	Port int

	// APIKey authenticates against a secured deployment. Optional.
	APIKey string

	// UseTLS enables transport security.
	UseTLS bool
}

// Engine is a Qdrant-backed vector engine.
type Engine struct {
	client *qdrant.Client
	logger *zap.Logger

	// descriptors caches index parameters created through this process so
	// searches can pick FLAT-exact vs IVF-approximate behavior without a
	// round trip. Indexes created elsewhere fall back to server defaults.
	descriptors sync.Map
}

// NewEngine connects to Qdrant and returns the engine handle.
func NewEngine(c Config, logger *zap.Logger) (*Engine, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	port := c.Port
	if port == 0 {
		port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(maxGrpcMessageSize),
				grpc.MaxCallSendMsgSize(maxGrpcMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrConnection, err)
	}

	logger.Info("qdrant engine initialized",
		zap.String("host", c.Host),
		zap.Int("port", port),
		zap.Bool("tls", c.UseTLS),
	)

	return &Engine{
		client: client,
		logger: logger,
	}, nil
}

// CreateIndex creates a collection sized to the descriptor. FLAT disables
// the HNSW graph so scans are exact; IVF_FLAT keeps the graph and uses
// default_nprobe as the search-quality knob.
func (e *Engine) CreateIndex(ctx context.Context, desc engine.IndexDescriptor) (any, error) {
	exists, err := e.client.CollectionExists(ctx, desc.Name)
	if err != nil {
		return nil, fmt.Errorf("checking collection %q: %w", desc.Name, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %q", engine.ErrIndexExists, desc.Name)
	}

	var hnsw *qdrant.HnswConfigDiff
	if desc.IndexParams.IndexType == engine.IndexTypeFlat {
		hnsw = &qdrant.HnswConfigDiff{M: qdrant.PtrOf(uint64(0))}
	}

	err = e.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: desc.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(desc.Dim),
			Distance: qdrant.Distance_Cosine,
		}),
		HnswConfig: hnsw,
	})
	if err != nil {
		return nil, fmt.Errorf("creating collection %q: %w", desc.Name, err)
	}

	e.descriptors.Store(desc.Name, desc)

	return map[string]any{
		"name":       desc.Name,
		"dim":        desc.Dim,
		"index_type": desc.IndexParams.IndexType,
	}, nil
}

// ListIndexes returns all collection names.
func (e *Engine) ListIndexes(ctx context.Context) (any, error) {
	names, err := e.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	return names, nil
}

// DescribeIndex returns collection details plus locally-known index params.
func (e *Engine) DescribeIndex(ctx context.Context, name string) (any, error) {
	info, err := e.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", engine.ErrIndexNotFound, name, err)
	}

	detail := map[string]any{
		"name":          name,
		"points_count":  info.GetPointsCount(),
		"status":        info.GetStatus().String(),
		"segments":      info.GetSegmentsCount(),
		"engine_config": info.GetConfig(),
	}
	if desc, ok := e.loadDescriptor(name); ok {
		detail["dim"] = desc.Dim
		detail["index_params"] = desc.IndexParams
	}
	return detail, nil
}

// Insert upserts the batch with optional aligned metadata and returns the
// generated point IDs in batch order.
func (e *Engine) Insert(ctx context.Context, indexName string, vectors canon.Batch, metadata []any) (any, error) {
	points := make([]*qdrant.PointStruct, len(vectors))
	ids := make([]string, len(vectors))

	for i, vec := range vectors {
		id := uuid.NewString()
		ids[i] = id

		var payload map[string]*qdrant.Value
		if metadata != nil {
			var err error
			payload, err = qdrant.TryValueMap(map[string]any{payloadField: metadata[i]})
			if err != nil {
				return nil, fmt.Errorf("encoding metadata for vector %d: %w", i, err)
			}
		}

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(id),
			Vectors: qdrant.NewVectors(toFloat32(vec)...),
			Payload: payload,
		}
	}

	if _, err := e.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: indexName,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	}); err != nil {
		return nil, fmt.Errorf("upserting %d points into %q: %w", len(points), indexName, err)
	}

	e.logger.Debug("inserted vectors",
		zap.String("index", indexName),
		zap.Int("count", len(points)),
	)

	return ids, nil
}

// Search runs one query per batch vector and returns, per query, the topK
// results as {id, score, metadata} items. A single-query batch returns the
// flat result list, matching what callers sending one vector expect.
func (e *Engine) Search(ctx context.Context, indexName string, query canon.Batch, topK int) (any, error) {
	params := e.searchParams(indexName)

	perQuery := make([]any, len(query))
	for qi, vec := range query {
		points, err := e.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: indexName,
			Query:          qdrant.NewQuery(toFloat32(vec)...),
			Limit:          qdrant.PtrOf(uint64(topK)),
			WithPayload:    qdrant.NewWithPayload(true),
			Params:         params,
		})
		if err != nil {
			return nil, fmt.Errorf("querying %q: %w", indexName, err)
		}

		hits := make([]any, len(points))
		for i, point := range points {
			hits[i] = map[string]any{
				"id":         pointID(point.GetId()),
				"score":      point.GetScore(),
				payloadField: valueToAny(point.GetPayload()[payloadField]),
			}
		}
		perQuery[qi] = hits
	}

	if len(perQuery) == 1 {
		return perQuery[0], nil
	}
	return perQuery, nil
}

// Close tears down the gRPC connection.
func (e *Engine) Close() error {
	return e.client.Close()
}

func (e *Engine) loadDescriptor(name string) (engine.IndexDescriptor, bool) {
	v, ok := e.descriptors.Load(name)
	if !ok {
		return engine.IndexDescriptor{}, false
	}
	return v.(engine.IndexDescriptor), true
}

// searchParams maps the index strategy onto Qdrant search params: FLAT is
// an exact scan, IVF_FLAT approximates with default_nprobe as the ef knob.
func (e *Engine) searchParams(indexName string) *qdrant.SearchParams {
	desc, ok := e.loadDescriptor(indexName)
	if !ok {
		return nil
	}

	switch desc.IndexParams.IndexType {
	case engine.IndexTypeFlat:
		return &qdrant.SearchParams{Exact: qdrant.PtrOf(true)}
	case engine.IndexTypeIVFFlat:
		return &qdrant.SearchParams{
			HnswEf: qdrant.PtrOf(uint64(desc.IndexParams.DefaultNprobe)),
		}
	default:
		return nil
	}
}

func toFloat32(vec canon.Vector) []float32 {
	out := make([]float32, len(vec))
	for i, f := range vec {
		out[i] = float32(f)
	}
	return out
}

func pointID(id *qdrant.PointId) any {
	if id == nil {
		return nil
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return id.GetNum()
}

// valueToAny converts a Qdrant payload value back into plain JSON-compatible
// data.
func valueToAny(v *qdrant.Value) any {
	if v == nil {
		return nil
	}

	switch kind := v.GetKind().(type) {
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		items := make([]any, len(kind.ListValue.GetValues()))
		for i, item := range kind.ListValue.GetValues() {
			items[i] = valueToAny(item)
		}
		return items
	case *qdrant.Value_StructValue:
		fields := make(map[string]any, len(kind.StructValue.GetFields()))
		for name, field := range kind.StructValue.GetFields() {
			fields[name] = valueToAny(field)
		}
		return fields
	default:
		return v.String()
	}
}

// Ensure Engine implements engine.Engine
var _ engine.Engine = (*Engine)(nil)
