// Package executor runs contract operations the way a chain runs
// transactions: each top-level call is atomic, sees a single block
// timestamp, and publishes its events only once committed.
package executor

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// TxOpts carries the sender of a call and the native value attached to it.
type TxOpts struct {
	From  common.Address
	Value *big.Int
}

// Amount returns the attached value, zero if unset.
func (o TxOpts) Amount() *big.Int {
	if o.Value == nil {
		return big.NewInt(0)
	}
	return o.Value
}

type frame struct {
	timestamp time.Time
	events    []domain.EventLog
}

type frameKey struct{}

func frameFromContext(ctx context.Context) *frame {
	f, _ := ctx.Value(frameKey{}).(*frame)
	return f
}

// Executor serializes state-changing calls and runs each of them in a
// repository transaction.
type Executor struct {
	repoManager ports.RepoManager
	ledger      ports.Ledger

	lock       sync.Mutex
	clock      func() time.Time
	publishers []ports.EventPublisher
}

func NewExecutor(
	repoManager ports.RepoManager, ledger ports.Ledger,
	publishers ...ports.EventPublisher,
) *Executor {
	return &Executor{
		repoManager: repoManager,
		ledger:      ledger,
		clock:       time.Now,
		publishers:  publishers,
	}
}

// WithClock overrides the source of block timestamps.
func (e *Executor) WithClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	e.clock = clock
}

// AddPublisher registers one more receiver of committed events.
func (e *Executor) AddPublisher(p ports.EventPublisher) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.publishers = append(e.publishers, p)
}

// Call runs fn as a call from opts.From to contract. Attached value is
// credited to the contract before fn runs, and is rejected if the call is
// not payable. When ctx already belongs to a running call, fn runs as a
// savepoint of it, otherwise a new transaction is started. Either way
// nothing fn or the value transfer did survives if fn fails.
func (e *Executor) Call(
	ctx context.Context, opts TxOpts, contract common.Address, payable bool,
	fn func(ctx context.Context) error,
) error {
	if opts.From == (common.Address{}) {
		return domain.ErrInvalidCaller
	}
	value := opts.Amount()
	if value.Sign() < 0 {
		return domain.ErrInvalidValue
	}
	if !payable && value.Sign() > 0 {
		return domain.ErrNonPayable
	}

	return e.run(ctx, func(ctx context.Context) error {
		if value.Sign() > 0 {
			if err := e.ledger.Transfer(ctx, opts.From, contract, value); err != nil {
				return err
			}
		}
		return fn(ctx)
	})
}

// Transfer sends native currency between accounts as a standalone call.
func (e *Executor) Transfer(
	ctx context.Context, from, to common.Address, amount *big.Int,
) error {
	if from == (common.Address{}) {
		return domain.ErrInvalidCaller
	}
	return e.run(ctx, func(ctx context.Context) error {
		return e.ledger.Transfer(ctx, from, to, amount)
	})
}

// View runs fn against a read-only snapshot, or within the running call if
// ctx belongs to one.
func (e *Executor) View(ctx context.Context, fn func(ctx context.Context) error) error {
	if frameFromContext(ctx) != nil {
		return fn(ctx)
	}
	_, err := e.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return nil, fn(ctx)
		},
	)
	return err
}

// Emit records an event to be published once the running call commits.
func (e *Executor) Emit(ctx context.Context, contract common.Address, event domain.Event) {
	f := frameFromContext(ctx)
	if f == nil {
		log.Warnf("dropping event %s emitted outside of a call", event.Topic())
		return
	}
	f.events = append(f.events, domain.EventLog{Contract: contract, Event: event})
}

// BlockTime returns the timestamp shared by everything the running call
// does. Outside a call it returns the current time.
func BlockTime(ctx context.Context) time.Time {
	if f := frameFromContext(ctx); f != nil {
		return f.timestamp
	}
	return time.Now()
}

func (e *Executor) run(ctx context.Context, body func(ctx context.Context) error) error {
	if parent := frameFromContext(ctx); parent != nil {
		return e.runNested(ctx, parent, body)
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	f := &frame{timestamp: e.clock()}
	_, err := e.repoManager.RunTransaction(
		context.WithValue(ctx, frameKey{}, f), false,
		func(ctx context.Context) (interface{}, error) {
			return nil, body(ctx)
		},
	)
	if err != nil {
		log.WithError(err).Debug("call reverted")
		return err
	}

	// Publishers see batches in commit order. They must not block.
	if len(f.events) > 0 {
		for _, p := range e.publishers {
			p.PublishEvents(f.events)
		}
	}
	return nil
}

// runNested runs body as a savepoint of the running call: if it fails, its
// writes and events are discarded while the enclosing call goes on.
func (e *Executor) runNested(
	ctx context.Context, parent *frame, body func(ctx context.Context) error,
) error {
	f := &frame{timestamp: parent.timestamp}
	_, err := e.repoManager.RunTransaction(
		context.WithValue(ctx, frameKey{}, f), false,
		func(ctx context.Context) (interface{}, error) {
			return nil, body(ctx)
		},
	)
	if err != nil {
		log.WithError(err).Debug("nested call reverted")
		return err
	}
	parent.events = append(parent.events, f.events...)
	return nil
}
