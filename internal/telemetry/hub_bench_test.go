package telemetry

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

func BenchmarkPublishWithSubscribers(b *testing.B) {
	for _, count := range []int{1, 10, 100} {
		b.Run(fmt.Sprintf("Subscribers_%d", count), func(b *testing.B) {
			cfg := testConfig()
			cfg.ClientBuffer = 1
			hub := NewHub(cfg, zerolog.Nop())
			defer hub.Stop()

			for i := 0; i < count; i++ {
				hub.Subscribe("bench")
			}
			payload := map[string]string{"name": "temp1", "value": "20"}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				hub.Publish("sensorUpdated", payload)
			}
		})
	}
}

func BenchmarkSubscribeUnsubscribe(b *testing.B) {
	hub := NewHub(testConfig(), zerolog.Nop())
	defer hub.Stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c := hub.Subscribe("bench")
		hub.Unsubscribe(c.ID)
	}
}
