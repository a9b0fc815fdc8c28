package transport

import (
	"net/http"
	"time"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/eventbus"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 20 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamQuery binds GET /v1/stream?symbol=...&topic=trades|depth|bbo.
// topic empty subscribes to all three.
type streamQuery struct {
	Symbol string `form:"symbol" binding:"required"`
	Topic  string `form:"topic"`
}

// Stream upgrades the connection and relays the requested symbol/topic
// combination from the EventBus until the client disconnects.
func (h *Handler) Stream(c *gin.Context) {
	var q streamQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "symbol query parameter is required", err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	bus := h.engine.EventBus()
	topics := topicsFor(q.Topic)
	subs := make([]*eventbus.Subscription, 0, len(topics))
	for _, t := range topics {
		subs = append(subs, bus.Subscribe(q.Symbol, t, eventbus.DefaultBufferSize))
	}
	defer func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}()

	merged := mergeSubscriptions(subs)
	h.pumpToClient(conn, merged)
}

func topicsFor(topic string) []eventbus.Topic {
	switch eventbus.Topic(topic) {
	case eventbus.TopicTrades, eventbus.TopicDepth, eventbus.TopicBBO:
		return []eventbus.Topic{eventbus.Topic(topic)}
	default:
		return []eventbus.Topic{eventbus.TopicTrades, eventbus.TopicDepth, eventbus.TopicBBO}
	}
}

// mergeSubscriptions fans multiple subscriptions into one channel so
// pumpToClient only has to select on one read and one ticker.
func mergeSubscriptions(subs []*eventbus.Subscription) <-chan eventbus.Event {
	out := make(chan eventbus.Event, eventbus.DefaultBufferSize)
	for _, sub := range subs {
		go func(sub *eventbus.Subscription) {
			for ev := range sub.Events() {
				out <- ev
			}
		}(sub)
	}
	return out
}

func (h *Handler) pumpToClient(conn *websocket.Conn, events <-chan eventbus.Event) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(gin.H{"symbol": ev.Symbol, "topic": ev.Topic, "data": ev.Payload}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
