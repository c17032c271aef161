package events

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Filterer is the log query surface the watcher needs, satisfied by
// client.Client.
type Filterer interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// WatcherConfig tunes the polling watcher.
type WatcherConfig struct {
	Tokens    []common.Address
	Recipient *common.Address
	Interval  time.Duration
	BatchSize uint64
}

// Watcher polls for new Transfer logs and hands each one to a callback.
type Watcher struct {
	client   Filterer
	cfg      WatcherConfig
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher over the given tokens.
func NewWatcher(client Filterer, cfg WatcherConfig) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	return &Watcher{
		client: client,
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}
}

// Start begins polling after the current head block. The callback runs on
// the watcher goroutine; cancel ctx or call Stop to end it.
func (w *Watcher) Start(ctx context.Context, handle func(Transfer)) error {
	head, err := w.client.BlockNumber(ctx)
	if err != nil {
		return errors.Wrap(err, "fetching start block")
	}

	log.Info().
		Uint64("start_block", head+1).
		Int("token_count", len(w.cfg.Tokens)).
		Msg("Starting transfer watcher")

	go w.watchLoop(ctx, head+1, handle)

	return nil
}

// Stop ends the polling loop. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *Watcher) watchLoop(ctx context.Context, from uint64, handle func(Transfer)) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Transfer watcher stopped by context")
			return
		case <-w.stopCh:
			log.Info().Msg("Transfer watcher stopped")
			return
		case <-ticker.C:
			head, err := w.client.BlockNumber(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Failed to get latest block number")
				continue
			}

			for from <= head {
				end := from + w.cfg.BatchSize - 1
				if end > head {
					end = head
				}

				if err := w.scanRange(ctx, from, end, handle); err != nil {
					log.Error().
						Uint64("from_block", from).
						Uint64("to_block", end).
						Err(err).
						Msg("Failed to scan block range")
					break
				}

				from = end + 1
			}
		}
	}
}

func (w *Watcher) scanRange(ctx context.Context, from, to uint64, handle func(Transfer)) error {
	q := TransferQuery(w.cfg.Tokens, w.cfg.Recipient, new(big.Int).SetUint64(from), new(big.Int).SetUint64(to))

	logs, err := w.client.FilterLogs(ctx, q)
	if err != nil {
		return err
	}

	for _, lg := range logs {
		transfer, err := ParseTransfer(lg)
		if err != nil {
			log.Warn().
				Str("tx_hash", lg.TxHash.Hex()).
				Err(err).
				Msg("Skipping malformed transfer log")
			continue
		}
		handle(transfer)
	}

	return nil
}
