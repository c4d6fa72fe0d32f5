// Package embeddings provides embedding generation functionality.
package embeddings

import (
	"context"
)

// EmbeddingDimension is the default embedding dimension (768 for nomic-embed-text)
const EmbeddingDimension = 768

// Client provides embedding generation functionality
type Client interface {
	// EmbedQuery generates an embedding vector for the given query text
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// EmbedDocument generates an embedding vector for the given document text
	EmbedDocument(ctx context.Context, document string) ([]float32, error)
}

// NoopClient is a no-op implementation that returns nil embeddings
// Used when embeddings are disabled
type NoopClient struct{}

// NewNoopClient creates a new NoopClient
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

// EmbedQuery returns nil, nil (no embedding available)
func (c *NoopClient) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return nil, nil
}

// EmbedDocument returns nil, nil (no embedding available)
func (c *NoopClient) EmbedDocument(ctx context.Context, document string) ([]float32, error) {
	return nil, nil
}
