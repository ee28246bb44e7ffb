// Package nursery implements the SwapNursery orchestrator of spec.md
// §4.1: the event-driven state machine that serializes lockup/claim/
// refund decisions per swap kind and drives every swap from creation to
// either claim or refund.
package nursery

import (
	"context"
	"sync"
	"time"

	logging "github.com/ipfs/go-log"

	"github.com/djkazic/boltz-backend/currency"
	"github.com/djkazic/boltz-backend/deferredclaim"
	"github.com/djkazic/boltz-backend/evm"
	"github.com/djkazic/boltz-backend/events"
	"github.com/djkazic/boltz-backend/lightning"
	"github.com/djkazic/boltz-backend/notification"
	"github.com/djkazic/boltz-backend/swap"
	"github.com/djkazic/boltz-backend/types"
)

var log = logging.Logger("nursery")

// defaultQueueDepth is spec.md §4.1's default bounded pending-acquisition
// depth for each category lock.
const defaultQueueDepth = 10_000

// Config wires every collaborator the nursery needs. Fields left nil use
// a reasonable default where one exists (DeferredClaimer, Notifier,
// QueueDepth); the rest are required.
type Config struct {
	Currencies *currency.Registry
	EVM        *evm.Registry

	Swaps        swap.SwapRepository
	ReverseSwaps swap.ReverseSwapRepository
	ChainSwaps   swap.ChainSwapRepository
	Wrapped      swap.WrappedSwapRepository
	RefundTxs    swap.RefundTransactionRepository
	Channels     swap.ChannelCreationRepository
	Labels       swap.TransactionLabelRepository

	PaymentHandler *lightning.PaymentHandler

	DeferredClaimer deferredclaim.Claimer
	Notifier        notification.Notifier

	LightningCallTimeout time.Duration
	QueueDepth           int
	RetryInterval        time.Duration
}

func (c *Config) setDefaults() {
	if c.DeferredClaimer == nil {
		c.DeferredClaimer = deferredclaim.NeverDefer{}
	}
	if c.Notifier == nil {
		c.Notifier = notification.LogNotifier{}
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = defaultQueueDepth
	}
	if c.LightningCallTimeout <= 0 {
		c.LightningCallTimeout = 30 * time.Second
	}
}

// Nursery is the orchestrator. It owns the three category locks and the
// fan-in dispatch loop; it holds no other mutable state of its own (the
// persisted swap rows are the single source of truth, per spec.md §3
// "Ownership").
type Nursery struct {
	cfg Config

	swapLock        *categoryLock
	reverseSwapLock *categoryLock
	chainSwapLock   *categoryLock
	retryRunning    sync.Mutex // non-blocking trylock for the retry timer

	subscriptions []<-chan events.Event
	blockTicks    []<-chan evm.BlockTick
}

// New constructs a Nursery from cfg.
func New(cfg Config) *Nursery {
	cfg.setDefaults()
	return &Nursery{
		cfg:             cfg,
		swapLock:        newCategoryLock(cfg.QueueDepth),
		reverseSwapLock: newCategoryLock(cfg.QueueDepth),
		chainSwapLock:   newCategoryLock(cfg.QueueDepth),
	}
}

// Subscribe registers a watcher's event channel to be drained by Run.
// Must be called before Run.
func (n *Nursery) Subscribe(ch <-chan events.Event) {
	n.subscriptions = append(n.subscriptions, ch)
}

// SubscribeBlocks registers an EVM watcher's block-tick channel, used to
// re-evaluate timestamp-based EVM timeouts (spec.md §4.3).
func (n *Nursery) SubscribeBlocks(ch <-chan evm.BlockTick) {
	n.blockTicks = append(n.blockTicks, ch)
}

// Run fans in every subscribed channel and dispatches each event to its
// swap kind's category lock until ctx is cancelled. One goroutine per
// subscription forwards into a single unbuffered merge channel; Run itself
// consumes the merge channel serially, handing each event off to the
// matching category lock (which may, in turn, queue it if its worker is
// busy — see categoryLock.Run).
func (n *Nursery) Run(ctx context.Context) error {
	merged := make(chan events.Event)
	var wg sync.WaitGroup

	for _, ch := range n.subscriptions {
		wg.Add(1)
		go func(ch <-chan events.Event) {
			defer wg.Done()
			for {
				select {
				case ev, ok := <-ch:
					if !ok {
						return
					}
					select {
					case merged <- ev:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}

	for _, ch := range n.blockTicks {
		wg.Add(1)
		go func(ch <-chan evm.BlockTick) {
			defer wg.Done()
			for {
				select {
				case tick, ok := <-ch:
					if !ok {
						return
					}
					n.handleEVMBlockTick(ctx, tick)
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}

	go func() {
		wg.Wait()
		close(merged)
	}()

	var retryTicker *time.Ticker
	if n.cfg.RetryInterval > 0 {
		retryTicker = time.NewTicker(n.cfg.RetryInterval)
		defer retryTicker.Stop()
	}
	var retryC <-chan time.Time
	if retryTicker != nil {
		retryC = retryTicker.C
	}

	for {
		select {
		case ev, ok := <-merged:
			if !ok {
				return ctx.Err()
			}
			n.dispatch(ctx, ev)
		case <-retryC:
			go n.runRetry(ctx)
		case <-ctx.Done():
			n.swapLock.Stop()
			n.reverseSwapLock.Stop()
			n.chainSwapLock.Stop()
			return ctx.Err()
		}
	}
}

// lockFor returns the category lock owning kind.
func (n *Nursery) lockFor(kind types.SwapKind) *categoryLock {
	switch kind {
	case types.ReverseSubmarine:
		return n.reverseSwapLock
	case types.Chain:
		return n.chainSwapLock
	default:
		return n.swapLock
	}
}

// dispatch hands ev to its category lock's worker. Errors are caught at
// the handler boundary, logged with the swap id, and surfaced to the
// notifier (spec.md §7 "Propagation policy"); the lock is always released
// because categoryLock.Run's task always completes.
func (n *Nursery) dispatch(ctx context.Context, ev events.Event) {
	lock := n.lockFor(ev.Kind)
	err := lock.Run(ctx, func(ctx context.Context) error {
		return n.handleEvent(ctx, ev)
	})
	if err != nil {
		log.Errorf("swap %s: handling event %s failed: %s", ev.SwapID, ev.Name, err)
		n.cfg.Notifier.Notify(notification.SeverityCritical, ev.SwapID, err.Error())
	}
}

// handleEvent is the single entry point invoked inside a category lock's
// worker goroutine; it fans out by event name to the specific handler.
func (n *Nursery) handleEvent(ctx context.Context, ev events.Event) error {
	switch ev.Name {
	case events.SwapLockup:
		return n.handleSwapLockup(ctx, ev)
	case events.SwapLockupFailed:
		return n.handleLockupFailed(ctx, ev)
	case events.ServerLockupConfirmed:
		return n.handleServerLockupConfirmed(ctx, ev)
	case events.ReverseSwapClaimed:
		return n.handleCounterpartyClaimed(ctx, ev)
	case events.ChainSwapLockup:
		return n.handleChainSwapLockup(ctx, ev)
	case events.ChainSwapClaimed:
		return n.handleCounterpartyClaimed(ctx, ev)
	case events.SwapExpired, events.ReverseSwapExpired, events.ChainSwapExpired:
		return n.handleExpired(ctx, ev)
	case events.InvoicePaid:
		return n.handleInvoicePaid(ctx, ev)
	case events.MinerFeeInvoicePaid:
		return n.handleMinerFeeInvoicePaid(ctx, ev)
	case events.InvoiceExpired:
		return n.handleInvoiceExpired(ctx, ev)
	case events.EthLockup, events.ERC20Lockup:
		return n.handleEVMUserLockup(ctx, ev)
	case events.LockupConfirmed:
		return n.handleServerLockupConfirmed(ctx, ev)
	case events.Claim:
		return n.handleCounterpartyClaimed(ctx, ev)
	case events.Refund:
		return n.handleCounterpartyRefundObserved(ctx, ev)
	case events.LockupFailedToSend:
		return n.handleLockupFailedToSend(ctx, ev)
	case events.RefundConfirmed:
		return n.handleRefundConfirmed(ctx, ev)
	default:
		log.Debugf("swap %s: no handler for event %s, ignoring", ev.SwapID, ev.Name)
		return nil
	}
}
