package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/location-lookup/internal/config"
	"github.com/location-lookup/internal/domain"
)

func TestToMessage(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	event := domain.ResolutionEvent{
		ID:          uuid.New(),
		Mode:        domain.ModeResolve,
		Fingerprint: "9f86d081884c7d65",
		Status:      domain.StatusAmbiguous,
		ResultCount: 2,
		OccurredAt:  now,
	}

	msg, err := toMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("9f86d081884c7d65"), msg.Key)
	assert.Equal(t, now, msg.Time)
	assert.Contains(t, string(msg.Value), `"status":"ambiguous"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "mode", msg.Headers[0].Key)
	assert.Equal(t, []byte("resolve"), msg.Headers[0].Value)
	assert.Equal(t, "status", msg.Headers[1].Key)
	assert.Equal(t, []byte("ambiguous"), msg.Headers[1].Value)
}

func TestToMessage_SearchHasNoStatusHeader(t *testing.T) {
	msg, err := toMessage(domain.ResolutionEvent{ID: uuid.New(), Mode: domain.ModeSearch, ResultCount: 4})
	require.NoError(t, err)

	require.Len(t, msg.Headers, 1)
	assert.NotContains(t, string(msg.Value), `"status"`)
}

func TestWriter_PublishEmptyBatch(t *testing.T) {
	w := NewWriter(&config.EventsConfig{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "resolutions"}, zap.NewNop())
	defer w.Close()

	assert.NoError(t, w.Publish(context.Background(), nil))
}
