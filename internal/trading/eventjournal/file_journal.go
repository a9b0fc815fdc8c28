// Package eventjournal subscribes to the EventBus trades topic for every
// configured symbol and appends one JSON object per line to a per-process
// trade log file, fsync'd per write so no acknowledged trade is lost to a
// crash between write and flush.
package eventjournal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/eventbus"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"go.uber.org/zap"
)

// Config configures a TradeLogWriter.
type Config struct {
	FilePath string
	// BufferSize is the per-symbol subscription buffer passed to
	// eventbus.Bus.Subscribe; <= 0 uses eventbus.DefaultBufferSize.
	BufferSize int
}

// DefaultConfig returns the conventional trade-log location.
func DefaultConfig() Config {
	return Config{FilePath: "trades.jsonl", BufferSize: eventbus.DefaultBufferSize}
}

// TradeLogWriter appends every trade published on the bus to a JSON-lines
// file, one goroutine per subscribed symbol.
type TradeLogWriter struct {
	logger *zap.Logger
	config Config

	mu   sync.Mutex
	file *os.File

	quit chan struct{}
	wg   sync.WaitGroup
}

// New opens (or creates) the trade log file and returns a writer ready to
// subscribe to symbols via Subscribe.
func New(config Config, logger *zap.Logger) (*TradeLogWriter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.FilePath == "" {
		config.FilePath = DefaultConfig().FilePath
	}
	if dir := filepath.Dir(config.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create trade log directory: %w", err)
		}
	}
	f, err := os.OpenFile(config.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trade log file: %w", err)
	}
	w := &TradeLogWriter{
		logger: logger,
		config: config,
		file:   f,
		quit:   make(chan struct{}),
	}
	logger.Info("trade log writer initialized", zap.String("file_path", config.FilePath))
	return w, nil
}

// Subscribe registers symbol's trades topic on bus and starts a goroutine
// that drains the subscription into the log file until Close.
func (w *TradeLogWriter) Subscribe(bus *eventbus.Bus, symbol string) {
	sub := bus.Subscribe(symbol, eventbus.TopicTrades, w.config.BufferSize)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
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
				if err := w.write(trade); err != nil {
					w.logger.Error("failed to write trade to journal",
						zap.String("symbol", symbol), zap.Error(err))
				}
			case <-w.quit:
				sub.Unsubscribe()
				return
			}
		}
	}()
}

// write serializes trade as one JSON line and fsyncs the file.
func (w *TradeLogWriter) write(trade *model.Trade) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("write trade: %w", err)
	}
	return w.file.Sync()
}

// Close stops every subscription goroutine and closes the log file.
func (w *TradeLogWriter) Close() error {
	close(w.quit)
	w.wg.Wait()
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
