package jetstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/evbridge/evbridge/transport"
)

func TestRegistered(t *testing.T) {
	assert.True(t, transport.DefaultRegistry.Has(TransportName))

	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "nats-jetstream", caps.Name)
	assert.True(t, caps.SupportsProvisioning)
	assert.True(t, caps.SupportsOrdering)
	assert.True(t, caps.SupportsReliableDelivery())
}

func TestCapabilities(t *testing.T) {
	caps := Capabilities()
	assert.Equal(t, transport.NATSJetStreamCapabilities, caps)
	assert.Equal(t, "nats-jetstream", caps.Name)
}

func TestTransportName(t *testing.T) {
	assert.Equal(t, "nats-jetstream", TransportName)
}

func TestConfig_withDefaults(t *testing.T) {
	t.Run("empty config gets defaults", func(t *testing.T) {
		cfg := Config{}
		result := cfg.withDefaults()

		assert.Equal(t, "EVBRIDGE", result.StreamName)
		assert.Equal(t, DefaultMaxDeliver, result.MaxDeliver)
		assert.Equal(t, DefaultAckWait, result.AckWait)
		assert.Equal(t, 1, result.Replicas)
	})

	t.Run("custom values preserved", func(t *testing.T) {
		cfg := Config{
			URL:             "nats://localhost:4222",
			StreamName:      "CUSTOM",
			MaxDeliver:      5,
			AckWait:         time.Minute,
			Replicas:        3,
			RetentionPolicy: "workqueue",
		}
		result := cfg.withDefaults()

		assert.Equal(t, "nats://localhost:4222", result.URL)
		assert.Equal(t, "CUSTOM", result.StreamName)
		assert.Equal(t, 5, result.MaxDeliver)
		assert.Equal(t, time.Minute, result.AckWait)
		assert.Equal(t, 3, result.Replicas)
		assert.Equal(t, "workqueue", result.RetentionPolicy)
	})

	t.Run("negative values get defaults", func(t *testing.T) {
		cfg := Config{
			MaxDeliver: -1,
			AckWait:    -1,
			Replicas:   -1,
		}
		result := cfg.withDefaults()

		assert.Equal(t, DefaultMaxDeliver, result.MaxDeliver)
		assert.Equal(t, DefaultAckWait, result.AckWait)
		assert.Equal(t, 1, result.Replicas)
	})
}

func TestTopicMapping(t *testing.T) {
	tr := &Transport{config: Config{StreamName: "EVBRIDGE"}}

	assert.Equal(t, "EVBRIDGE.user.logged-in", tr.topicToSubject("user.logged-in"))
	assert.Equal(t, "consumer_user.logged-in", tr.topicToConsumer("user.logged-in"))
}

func TestConstants(t *testing.T) {
	assert.Equal(t, 3, DefaultMaxDeliver)
	assert.Equal(t, 30*time.Second, DefaultAckWait)
}
