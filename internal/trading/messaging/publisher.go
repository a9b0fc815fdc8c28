package messaging

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/eventbus"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"go.uber.org/zap"
)

// TradePublisher subscribes to the EventBus trades topic for every
// registered symbol and republishes each trade to Kafka, keyed by symbol so
// all trades for one symbol land on the same partition and preserve order.
type TradePublisher struct {
	client *KafkaClient
	logger *zap.Logger

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewTradePublisher wraps an already-constructed KafkaClient.
func NewTradePublisher(client *KafkaClient, logger *zap.Logger) *TradePublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TradePublisher{client: client, logger: logger, quit: make(chan struct{})}
}

// Subscribe registers symbol's trades topic on bus and republishes every
// trade to Kafka until Close.
func (p *TradePublisher) Subscribe(bus *eventbus.Bus, symbol string) {
	sub := bus.Subscribe(symbol, eventbus.TopicTrades, eventbus.DefaultBufferSize)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				trade, ok := ev.Payload.(*model.Trade)
				if !ok {
					continue
				}
				p.publish(symbol, trade)
			case <-p.quit:
				sub.Unsubscribe()
				return
			}
		}
	}()
}

func (p *TradePublisher) publish(symbol string, trade *model.Trade) {
	data, err := json.Marshal(trade)
	if err != nil {
		p.logger.Error("failed to marshal trade for kafka", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	if err := p.client.PublishEvent(context.Background(), symbol, data); err != nil {
		p.logger.Error("failed to publish trade to kafka",
			zap.String("symbol", symbol),
			zap.String("topic", p.client.Topic()),
			zap.String("group", p.client.Group()),
			zap.Error(err),
		)
	}
}

// Healthy delegates to the underlying KafkaClient's connectivity check, so
// callers (the transport readiness probe) can report Kafka outages without
// reaching into messaging internals.
func (p *TradePublisher) Healthy(ctx context.Context) error {
	return p.client.IsHealthy(ctx)
}

// Close stops every subscription goroutine. The underlying KafkaClient is
// owned by the caller and must be closed separately.
func (p *TradePublisher) Close() {
	close(p.quit)
	p.wg.Wait()
}
