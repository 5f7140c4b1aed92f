package memory

import (
	"context"
	"fmt"
	"runtime"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const payloadMetadataKey = "correction"

// ChromemConfig configures the embedded chromem-go index.
type ChromemConfig struct {
	// Path is the on-disk database directory.
	Path string `koanf:"path"`

	// Collection is the collection name. Default: "corrections".
	Collection string `koanf:"collection"`
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "corrections"
	}
}

// ChromemIndex stores correction vectors in an embedded, persistent
// chromem-go database. Suitable for single-node deployments.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     *zap.Logger
}

var _ Index = (*ChromemIndex)(nil)

// NewChromemIndex opens (or creates) the database at cfg.Path and binds
// the configured collection to the embedder.
func NewChromemIndex(cfg ChromemConfig, embedder Embedder, logger *zap.Logger) (*ChromemIndex, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidConfig)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	db, err := chromem.NewPersistentDB(cfg.Path, false)
	if err != nil {
		return nil, fmt.Errorf("opening chromem db: %w", err)
	}

	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("creating collection %q: %w", cfg.Collection, err)
	}

	logger.Info("chromem index ready",
		zap.String("path", cfg.Path),
		zap.String("collection", cfg.Collection),
		zap.Int("entries", collection.Count()),
	)

	return &ChromemIndex{db: db, collection: collection, logger: logger}, nil
}

// Add stores one entry. chromem overwrites documents with the same ID.
func (x *ChromemIndex) Add(ctx context.Context, id, text, payload string) error {
	ctx, span := tracer.Start(ctx, "ChromemIndex.Add")
	defer span.End()

	doc := chromem.Document{
		ID:      id,
		Content: text,
		Metadata: map[string]string{
			payloadMetadataKey: payload,
		},
	}
	if err := x.collection.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding document: %w", err)
	}
	return nil
}

// Query returns up to k nearest entries by cosine similarity.
func (x *ChromemIndex) Query(ctx context.Context, text string, k int) ([]Hit, error) {
	ctx, span := tracer.Start(ctx, "ChromemIndex.Query")
	defer span.End()

	count := x.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := x.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	span.SetAttributes(attribute.Int("hits", len(results)))

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			ID:         r.ID,
			Payload:    r.Metadata[payloadMetadataKey],
			Similarity: r.Similarity,
		})
	}
	return hits, nil
}

// Close is a no-op: chromem persists on write.
func (x *ChromemIndex) Close() error {
	return nil
}
