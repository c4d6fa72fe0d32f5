package embeddings

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopService(t *testing.T) {
	svc := NewNoopService(slog.Default())

	assert.False(t, svc.IsEnabled())

	vec, err := svc.EmbedQuery(context.Background(), "anything")
	require.NoError(t, err)
	assert.Nil(t, vec)

	vec, err = svc.EmbedDocument(context.Background(), "anything")
	require.NoError(t, err)
	assert.Nil(t, vec)
}
