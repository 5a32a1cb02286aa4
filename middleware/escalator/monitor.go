package escalator

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ds "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/rs/zerolog"

	"github.com/ethlayer/ethlayer/core/middleware"
	"github.com/ethlayer/ethlayer/types"
)

// DefaultPollInterval is how often the monitor polls for new blocks when
// sweeping per block.
const DefaultPollInterval = 2 * time.Second

const enqueueBuffer = 64

// record tracks one transaction through its escalation lifetime. Records are
// owned exclusively by the monitor goroutine after enqueue.
type record struct {
	// hash of the most recent broadcast; earlier replacements may still
	// land, which the sweep tolerates by checking the mined store.
	hash         common.Hash
	req          *types.Request
	sentAt       time.Time
	initialPrice *big.Int
	lastPrice    *big.Int
}

// Monitor is the background worker behind the escalator layer. It receives
// broadcast transactions over a channel, and on every sweep rebroadcasts the
// still-pending ones whose strategy price has moved past the last broadcast
// price. Mined hashes are remembered in a datastore so late receipt lookups
// stay cheap.
type Monitor struct {
	inner    middleware.Middleware
	strategy Strategy
	freq     Frequency

	// pending is owned exclusively by the sweep goroutine; tracked mirrors
	// its size for outside observers.
	pending    []*record
	tracked    atomic.Int64
	incoming   chan *record
	minedStore ds.Batching

	logger zerolog.Logger

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

func newMonitor(inner middleware.Middleware, strategy Strategy, freq Frequency) *Monitor {
	return &Monitor{
		inner:      inner,
		strategy:   strategy,
		freq:       freq,
		incoming:   make(chan *record, enqueueBuffer),
		minedStore: dssync.MutexWrap(ds.NewMapDatastore()),
		logger:     zerolog.Nop(),
	}
}

// Start launches the sweep loop.
func (mo *Monitor) Start(ctx context.Context) error {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	if mo.started {
		return errors.New("escalator monitor already started")
	}
	mo.ctx, mo.cancel = context.WithCancel(ctx)
	mo.started = true

	mo.wg.Add(1)
	go func() {
		defer mo.wg.Done()
		mo.sweepLoop()
	}()

	mo.logger.Info().Bool("perBlock", mo.freq.perBlock).Dur("interval", mo.freq.interval).Msg("escalator monitor started")
	return nil
}

// Stop shuts the sweep loop down and waits for it to exit. Transactions still
// pending at shutdown are abandoned to the network at their last price.
func (mo *Monitor) Stop() error {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	if !mo.started {
		return nil
	}
	mo.cancel()
	mo.wg.Wait()
	mo.started = false

	mo.logger.Info().Msg("escalator monitor stopped")
	return nil
}

// PendingCount reports how many transactions are awaiting confirmation,
// including ones enqueued but not yet picked up by the loop.
func (mo *Monitor) PendingCount() int {
	return int(mo.tracked.Load())
}

// MinedStore returns the datastore of mined transaction hashes.
func (mo *Monitor) MinedStore() ds.Datastore { return mo.minedStore }

func (mo *Monitor) isStarted() bool {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	return mo.started
}

func (mo *Monitor) enqueue(ctx context.Context, hash common.Hash, req *types.Request) error {
	if !mo.isStarted() {
		return ErrNotStarted
	}

	price := req.GasPrice
	if price == nil {
		// Fee fields are guaranteed by the fill that preceded broadcast;
		// a missing price here means the request bypassed the fill.
		return types.ErrMissingGasPrice
	}
	rec := &record{
		hash:         hash,
		req:          req,
		sentAt:       time.Now(),
		initialPrice: new(big.Int).Set(price),
		lastPrice:    new(big.Int).Set(price),
	}
	select {
	case mo.incoming <- rec:
		mo.tracked.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-mo.ctx.Done():
		return ErrNotStarted
	}
}

func (mo *Monitor) sweepLoop() {
	ticker := time.NewTicker(mo.freq.tickInterval())
	defer ticker.Stop()

	var blockFilter string
	if mo.freq.perBlock {
		id, err := mo.inner.NewBlockFilter(mo.ctx)
		if err != nil {
			mo.logger.Error().Err(err).Msg("failed to install block filter, falling back to interval sweeps")
		} else {
			blockFilter = id
			defer func() {
				if _, err := mo.inner.UninstallFilter(context.Background(), blockFilter); err != nil {
					mo.logger.Debug().Err(err).Msg("failed to uninstall block filter")
				}
			}()
		}
	}

	for {
		select {
		case <-mo.ctx.Done():
			mo.drainIncoming()
			return
		case rec := <-mo.incoming:
			mo.pending = append(mo.pending, rec)
		case <-ticker.C:
			mo.drainIncoming()
			if blockFilter != "" {
				hashes, err := mo.inner.BlockFilterChanges(mo.ctx, blockFilter)
				if err != nil {
					mo.logger.Error().Err(err).Msg("failed to poll block filter")
					continue
				}
				if len(hashes) == 0 {
					continue
				}
			}
			mo.Sweep(mo.ctx)
		}
	}
}

func (mo *Monitor) drainIncoming() {
	for {
		select {
		case rec := <-mo.incoming:
			mo.pending = append(mo.pending, rec)
		default:
			return
		}
	}
}

// Sweep checks every tracked transaction once: mined ones are retired, and
// pending ones whose strategy price has risen past the last broadcast price
// are rebroadcast with the same nonce at the new price.
func (mo *Monitor) Sweep(ctx context.Context) {
	now := time.Now()
	kept := mo.pending[:0]
	for _, rec := range mo.pending {
		if mo.sweepOne(ctx, rec, now) {
			kept = append(kept, rec)
		} else {
			mo.tracked.Add(-1)
		}
	}
	mo.pending = kept
}

// sweepOne reports whether the record should remain tracked.
func (mo *Monitor) sweepOne(ctx context.Context, rec *record, now time.Time) bool {
	receipt, err := mo.inner.TransactionReceipt(ctx, rec.hash)
	switch {
	case err == nil:
		mo.logger.Info().
			Str("hash", rec.hash.Hex()).
			Uint64("block", receipt.BlockNumber.Uint64()).
			Msg("transaction confirmed")
		if err := mo.minedStore.Put(ctx, ds.NewKey(rec.hash.Hex()), []byte{1}); err != nil {
			mo.logger.Debug().Err(err).Msg("failed to record mined hash")
		}
		return false
	case errors.Is(err, ethereum.NotFound):
		// Still pending, fall through to escalation.
	default:
		mo.logger.Error().Err(err).Str("hash", rec.hash.Hex()).Msg("failed to check receipt")
		return true
	}

	price := mo.strategy.Price(rec.initialPrice, now.Sub(rec.sentAt))
	if price.Cmp(rec.lastPrice) <= 0 {
		return true
	}

	bumped := rec.req.Clone()
	bumped.GasPrice = price
	hash, err := mo.inner.SendTransaction(ctx, bumped)
	if err != nil {
		// The next sweep retries at whatever the strategy says then; a
		// replacement-underpriced rejection resolves itself as the
		// strategy price keeps climbing.
		mo.logger.Warn().Err(err).
			Str("hash", rec.hash.Hex()).
			Str("price", price.String()).
			Msg("failed to rebroadcast at escalated price")
		return true
	}

	mo.logger.Debug().
		Str("oldHash", rec.hash.Hex()).
		Str("newHash", hash.Hex()).
		Str("oldPrice", rec.lastPrice.String()).
		Str("newPrice", price.String()).
		Msg("rebroadcast at escalated price")
	rec.hash = hash
	rec.lastPrice = price
	return true
}

func (f Frequency) tickInterval() time.Duration {
	if f.interval > 0 {
		return f.interval
	}
	return DefaultPollInterval
}
