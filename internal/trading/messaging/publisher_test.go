package messaging_test

import (
	"testing"
	"time"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/eventbus"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/messaging"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"github.com/stretchr/testify/require"
)

// TestTradePublisherSubscribeDrainsOnClose exercises the subscription and
// shutdown path without a live Kafka broker: PublishEvent will fail because
// nothing is listening on localhost:9092, but Close must still return
// promptly once the subscriber goroutine observes the closed quit channel.
func TestTradePublisherSubscribeDrainsOnClose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network-touching messaging test in short mode")
	}

	client := messaging.NewKafkaClient([]string{"localhost:9092"}, "trades", "test-group", nil)
	defer client.Close()

	publisher := messaging.NewTradePublisher(client, nil)
	bus := eventbus.New(nil)
	publisher.Subscribe(bus, "BTC/USDT")

	bus.Publish("BTC/USDT", eventbus.TopicTrades, &model.Trade{Symbol: "BTC/USDT"})

	done := make(chan struct{})
	go func() {
		publisher.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("TradePublisher.Close did not return in time")
	}
}

func TestNewTradePublisherDefaultsNilLogger(t *testing.T) {
	client := messaging.NewKafkaClient([]string{"localhost:9092"}, "trades", "test-group", nil)
	publisher := messaging.NewTradePublisher(client, nil)
	require.NotNil(t, publisher)
}
