package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// qdrantIDNamespace scopes the deterministic point IDs derived from
// entry IDs. Qdrant requires UUID or integer point IDs, so the sha256
// entry ID is folded into a v5 UUID under this namespace.
var qdrantIDNamespace = uuid.MustParse("b1d6c0ce-8f1f-4a5e-9f50-6c7a2f54d9e1")

// QdrantConfig configures the external Qdrant index.
type QdrantConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Collection is the collection name. Default: "corrections".
	Collection string `koanf:"collection"`

	// VectorSize must match the embedder's dimension. Default: 384.
	VectorSize int `koanf:"vector_size"`

	UseTLS bool `koanf:"use_tls"`
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Collection == "" {
		c.Collection = "corrections"
	}
	if c.VectorSize == 0 {
		c.VectorSize = 384
	}
}

// QdrantIndex stores correction vectors in an external Qdrant instance
// over gRPC. Suitable when several intake nodes share one memory.
type QdrantIndex struct {
	client   *qdrant.Client
	embedder Embedder
	config   QdrantConfig
	logger   *zap.Logger
}

var _ Index = (*QdrantIndex)(nil)

// NewQdrantIndex connects to Qdrant and ensures the collection exists
// with cosine distance.
func NewQdrantIndex(cfg QdrantConfig, embedder Embedder, logger *zap.Logger) (*QdrantIndex, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	x := &QdrantIndex{client: client, embedder: embedder, config: cfg, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := x.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("qdrant index ready",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("collection", cfg.Collection),
	)
	return x, nil
}

func (x *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := x.client.CollectionExists(ctx, x.config.Collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", x.config.Collection, err)
	}
	if exists {
		return nil
	}

	err = x.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: x.config.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(x.config.VectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", x.config.Collection, err)
	}
	return nil
}

// Add upserts one entry. The point ID is derived from the entry ID, so
// re-adding the same entry overwrites it.
func (x *QdrantIndex) Add(ctx context.Context, id, text, payload string) error {
	ctx, span := tracer.Start(ctx, "QdrantIndex.Add")
	defer span.End()

	vectors, err := x.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embedding document: %w", err)
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(uuid.NewSHA1(qdrantIDNamespace, []byte(id)).String()),
		Vectors: qdrant.NewVectors(vectors[0]...),
		Payload: map[string]*qdrant.Value{
			"id":               {Kind: &qdrant.Value_StringValue{StringValue: id}},
			"content":          {Kind: &qdrant.Value_StringValue{StringValue: text}},
			payloadMetadataKey: {Kind: &qdrant.Value_StringValue{StringValue: payload}},
		},
	}

	_, err = x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: x.config.Collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upserting point: %w", err)
	}
	return nil
}

// Query returns up to k nearest entries by cosine similarity.
func (x *QdrantIndex) Query(ctx context.Context, text string, k int) ([]Hit, error) {
	ctx, span := tracer.Start(ctx, "QdrantIndex.Query")
	defer span.End()

	vector, err := x.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: x.config.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	span.SetAttributes(attribute.Int("hits", len(results)))

	hits := make([]Hit, 0, len(results))
	for _, point := range results {
		hit := Hit{Similarity: point.Score}
		if v, ok := point.Payload["id"]; ok {
			hit.ID = v.GetStringValue()
		}
		if v, ok := point.Payload[payloadMetadataKey]; ok {
			hit.Payload = v.GetStringValue()
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close closes the gRPC connection.
func (x *QdrantIndex) Close() error {
	return x.client.Close()
}
