// Package memory persists operator corrections keyed by semantic
// similarity of document text, and re-applies them to future documents.
// The store is fail-open by contract: when the embedding backend or the
// vector index is down, callers treat the wrapped ErrUnavailable as "no
// correction found" and an intake is never blocked by it.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("intaked.memory")

// Sentinel errors for correction memory operations.
var (
	// ErrUnavailable indicates the embedding backend or the vector
	// index is unreachable. Callers treat it as "no correction found".
	ErrUnavailable = errors.New("correction memory unavailable")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Overrides maps record field names (their JSON names: "category",
// "subcategory", "provider_name", ...) to operator-corrected values.
type Overrides map[string]string

// Entry is one stored correction: the document text it was filed
// against and the fields the operator explicitly corrected. Entries are
// immutable once created and never deleted by the engine.
type Entry struct {
	ID           string
	DocumentText string
	Overrides    Overrides
}

// Hit is one nearest-neighbor result from an Index.
type Hit struct {
	ID string
	// Payload is the serialized overrides stored alongside the vector.
	Payload string
	// Similarity is in [0,1], higher is more similar. Implementations
	// must convert their distance metric monotonically.
	Similarity float32
}

// Index is the durable vector index behind the store. Implementations:
// ChromemIndex (embedded, default) and QdrantIndex (external gRPC).
type Index interface {
	// Add stores (id, text, payload). An existing id is overwritten:
	// last write wins for identical input text.
	Add(ctx context.Context, id, text, payload string) error

	// Query returns up to k nearest entries by vector similarity,
	// highest first. An empty index yields no hits and no error.
	Query(ctx context.Context, text string, k int) ([]Hit, error)

	// Close releases index resources.
	Close() error
}

// Embedder generates the vectors an Index stores and searches with.
// One embedder serves both sides so distances stay comparable.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// StoreConfig tunes the correction store.
type StoreConfig struct {
	// Threshold is the minimum similarity for a stored correction to
	// apply. Tunable rather than fixed so precision/recall sweeps are
	// possible. Default: 0.85.
	Threshold float64 `koanf:"threshold"`

	// TopK is how many neighbors to consider. Default: 1.
	TopK int `koanf:"top_k"`
}

// ApplyDefaults sets default values for unset fields.
func (c *StoreConfig) ApplyDefaults() {
	if c.Threshold == 0 {
		c.Threshold = 0.85
	}
	if c.TopK == 0 {
		c.TopK = 1
	}
}

// Store is the correction memory. Add and Query are independent,
// non-transactional operations; the store does not serialize writers
// beyond what the underlying index provides.
type Store struct {
	index  Index
	config StoreConfig
	logger *zap.Logger
}

// NewStore creates a correction store over the given index.
func NewStore(index Index, cfg StoreConfig, logger *zap.Logger) (*Store, error) {
	if index == nil {
		return nil, fmt.Errorf("%w: index is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	return &Store{index: index, config: cfg, logger: logger}, nil
}

// entryID derives the index key from the document text. Identical text
// collides intentionally: the newest correction for the exact same
// document wins. Near-duplicate texts get distinct keys and coexist.
func entryID(documentText string) string {
	sum := sha256.Sum256([]byte(documentText))
	return hex.EncodeToString(sum[:])
}

// Add persists one operator correction.
func (s *Store) Add(ctx context.Context, documentText string, overrides Overrides) error {
	ctx, span := tracer.Start(ctx, "Store.Add")
	defer span.End()

	if documentText == "" {
		return fmt.Errorf("%w: document text is required", ErrInvalidConfig)
	}
	if len(overrides) == 0 {
		return fmt.Errorf("%w: overrides are required", ErrInvalidConfig)
	}

	payload, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("marshaling overrides: %w", err)
	}

	id := entryID(documentText)
	if err := s.index.Add(ctx, id, documentText, string(payload)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: add: %v", ErrUnavailable, err)
	}

	s.logger.Info("stored correction",
		zap.String("id", id),
		zap.Int("override_fields", len(overrides)),
	)
	return nil
}

// Query returns the overrides of the nearest stored correction when its
// similarity clears the configured threshold, otherwise an empty map.
// Index or embedding failures wrap ErrUnavailable.
func (s *Store) Query(ctx context.Context, documentText string) (Overrides, error) {
	ctx, span := tracer.Start(ctx, "Store.Query")
	defer span.End()

	if documentText == "" {
		return Overrides{}, nil
	}

	hits, err := s.index.Query(ctx, documentText, s.config.TopK)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: query: %v", ErrUnavailable, err)
	}
	if len(hits) == 0 {
		return Overrides{}, nil
	}

	best := hits[0]
	span.SetAttributes(attribute.Float64("similarity", float64(best.Similarity)))

	if float64(best.Similarity) < s.config.Threshold {
		s.logger.Debug("nearest correction below threshold",
			zap.Float32("similarity", best.Similarity),
			zap.Float64("threshold", s.config.Threshold),
		)
		return Overrides{}, nil
	}

	var overrides Overrides
	if err := json.Unmarshal([]byte(best.Payload), &overrides); err != nil {
		return nil, fmt.Errorf("unmarshaling stored overrides: %w", err)
	}

	s.logger.Debug("correction found",
		zap.String("id", best.ID),
		zap.Float32("similarity", best.Similarity),
	)
	return overrides, nil
}

// Close releases the underlying index.
func (s *Store) Close() error {
	return s.index.Close()
}
