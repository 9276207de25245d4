package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenvault/internal/platform/config"
)

func TestNewRecord_SortsHeaders(t *testing.T) {
	rec := newRecord("audit", "access-1", []byte(`{}`), map[string]string{
		"event_type":     "vault_deposited",
		"aggregate_type": "vault_access",
	})

	assert.Equal(t, "audit", rec.Topic)
	assert.Equal(t, []byte("access-1"), rec.Key)
	require.Len(t, rec.Headers, 2)
	assert.Equal(t, "aggregate_type", rec.Headers[0].Key)
	assert.Equal(t, []byte("vault_deposited"), rec.Headers[1].Value)
}

func TestNewProducer_Validation(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{AuditTopic: "audit"})
	assert.ErrorContains(t, err, "brokers are required")

	_, err = NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.ErrorContains(t, err, "audit topic is required")
}
