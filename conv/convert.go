package conv

import (
	"go.uber.org/zap"
)

// DefaultChunkSize bounds the transfer unit for large binary and character
// values. LOBs move through the converter chunk by chunk so peak memory in
// transit is bounded regardless of value size.
const DefaultChunkSize = 64 * 1024

// Converter performs the bidirectional mapping between host Values and the
// foreign Datum representation. A zero-config converter is ready to use;
// the same instance serves row decoding and metadata introspection.
type Converter struct {
	log       *zap.Logger
	chunkSize int
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the diagnostic logger. Opaque-fallback decodes are
// reported through it.
func WithLogger(log *zap.Logger) Option {
	return func(c *Converter) { c.log = log }
}

// WithChunkSize overrides the LOB transfer chunk size.
func WithChunkSize(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// New creates a Converter.
func New(opts ...Option) *Converter {
	c := &Converter{
		log:       zap.NewNop(),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
