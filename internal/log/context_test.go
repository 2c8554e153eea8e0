package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestAndRunIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Empty(t, RunIDFromContext(ctx))

	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithRunID(ctx, "run-9")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "run-9", RunIDFromContext(ctx))
}

func TestWithComponentFromContextCarriesIDs(t *testing.T) {
	var buf bytes.Buffer

	ctx := ContextWithRunID(context.Background(), "run-9")
	ctx = ContextWithRequestID(ctx, "req-1")
	l := WithComponentFromContext(ctx, "ingest").Output(&buf)
	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ingest", entry[FieldComponent])
	assert.Equal(t, "run-9", entry[FieldRunID])
	assert.Equal(t, "req-1", entry[FieldRequestID])
	assert.Equal(t, "hello", entry["message"])
}
