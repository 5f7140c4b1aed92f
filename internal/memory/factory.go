package memory

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Supported index providers.
const (
	ProviderChromem = "chromem"
	ProviderQdrant  = "qdrant"
)

// Config selects and configures the correction memory backend.
type Config struct {
	// Provider selects the index backend. Default: "chromem".
	Provider string `koanf:"provider"`

	// Path is the chromem database directory.
	Path string `koanf:"path"`

	// Collection is the collection name. Default: "corrections".
	Collection string `koanf:"collection"`

	// Threshold is the minimum similarity for a correction to apply.
	Threshold float64 `koanf:"threshold"`

	// TopK is how many neighbors to consider per query.
	TopK int `koanf:"top_k"`

	Qdrant QdrantConfig `koanf:"qdrant"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderChromem
	}
	if c.Path == "" {
		c.Path = "./data/corrections"
	}
	if c.Collection == "" {
		c.Collection = "corrections"
	}
}

// NewStoreFromConfig builds the configured index and wraps it in a
// Store.
func NewStoreFromConfig(cfg Config, embedder Embedder, logger *zap.Logger) (*Store, error) {
	cfg.ApplyDefaults()

	var (
		index Index
		err   error
	)
	switch strings.ToLower(cfg.Provider) {
	case ProviderChromem:
		index, err = NewChromemIndex(ChromemConfig{
			Path:       cfg.Path,
			Collection: cfg.Collection,
		}, embedder, logger)
	case ProviderQdrant:
		qcfg := cfg.Qdrant
		if qcfg.Collection == "" {
			qcfg.Collection = cfg.Collection
		}
		index, err = NewQdrantIndex(qcfg, embedder, logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewStore(index, StoreConfig{Threshold: cfg.Threshold, TopK: cfg.TopK}, logger)
}
