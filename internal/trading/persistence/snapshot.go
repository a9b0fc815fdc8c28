// Package persistence implements the JSON file snapshot loader: on
// shutdown the engine exports per symbol all resting orders and all ARMED
// stop orders; on startup it imports them, restoring timestamp_accepted so
// FIFO order survives the round trip.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/engine"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"
	"go.uber.org/zap"
)

// fileSnapshot is the on-disk shape of one symbol's snapshot file.
type fileSnapshot struct {
	Symbol  string         `json:"symbol"`
	Resting []*model.Order `json:"resting"`
	Armed   []*model.Order `json:"armed"`
}

// Store persists one JSON file per symbol under a configured directory,
// mirroring the original orderbook_data/{symbol}.json layout.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore constructs a Store rooted at dir. The directory is created on
// first Export if it does not already exist.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

func (s *Store) path(symbol string) string {
	return filepath.Join(s.dir, symbol+".json")
}

// Export writes a snapshot of symbol's resting orders and ARMED stops.
func (s *Store) Export(eng *engine.Engine, symbol string) error {
	resting, armed, err := eng.SnapshotSymbol(symbol)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", symbol, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path(symbol)), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	snap := fileSnapshot{Symbol: symbol, Resting: resting, Armed: armed}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", symbol, err)
	}
	if err := os.WriteFile(s.path(symbol), data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", symbol, err)
	}
	s.logger.Info("exported order book snapshot",
		zap.String("symbol", symbol),
		zap.Int("resting", len(resting)),
		zap.Int("armed", len(armed)),
	)
	return nil
}

// ExportAll exports every symbol the engine knows about.
func (s *Store) ExportAll(eng *engine.Engine) error {
	for _, symbol := range eng.Symbols() {
		if err := s.Export(eng, symbol); err != nil {
			return err
		}
	}
	return nil
}

// Import restores symbol's snapshot if a file exists; a missing file is
// not an error, since a fresh symbol has nothing to restore.
func (s *Store) Import(eng *engine.Engine, symbol string) error {
	data, err := os.ReadFile(s.path(symbol))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", symbol, err)
	}
	var snap fileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("unmarshal snapshot %s: %w", symbol, err)
	}
	if err := eng.RestoreSymbol(symbol, snap.Resting, snap.Armed); err != nil {
		return fmt.Errorf("restore snapshot %s: %w", symbol, err)
	}
	s.logger.Info("imported order book snapshot",
		zap.String("symbol", symbol),
		zap.Int("resting", len(snap.Resting)),
		zap.Int("armed", len(snap.Armed)),
	)
	return nil
}

// ImportAll imports every symbol the engine knows about.
func (s *Store) ImportAll(eng *engine.Engine) error {
	for _, symbol := range eng.Symbols() {
		if err := s.Import(eng, symbol); err != nil {
			return err
		}
	}
	return nil
}
