package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/timshannon/badgerhold/v4"
)

type txKey struct{}

type savepointKey struct{}

// savepoint collects the steps restoring what a nested transaction
// overwrote, so that its writes can be undone if it fails.
type savepoint struct {
	undo []func(tx *badger.Txn) error
}

func savepointFromContext(ctx context.Context) *savepoint {
	sp, _ := ctx.Value(savepointKey{}).(*savepoint)
	return sp
}

type repoManager struct {
	store *badgerhold.Store

	orderRepository        domain.OrderRepository
	orderBookRepository    domain.OrderBookRepository
	tokenManagerRepository domain.TokenManagerRepository
	balanceRepository      balanceRepositoryImpl
}

// NewRepoManager opens (or creates if not exists) the badger store on disk.
// It expects a base data dir and an optional logger. An empty dir opens an
// in-memory store.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	dbDir := ""
	if baseDbDir != "" {
		dbDir = filepath.Join(baseDbDir, "dex")
	}
	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening dex db: %w", err)
	}

	return &repoManager{
		store:                  store,
		orderRepository:        NewOrderRepositoryImpl(store),
		orderBookRepository:    NewOrderBookRepositoryImpl(store),
		tokenManagerRepository: NewTokenManagerRepositoryImpl(store),
		balanceRepository:      balanceRepositoryImpl{store},
	}, nil
}

func (r *repoManager) OrderRepository() domain.OrderRepository {
	return r.orderRepository
}

func (r *repoManager) OrderBookRepository() domain.OrderBookRepository {
	return r.orderBookRepository
}

func (r *repoManager) TokenManagerRepository() domain.TokenManagerRepository {
	return r.tokenManagerRepository
}

func (r *repoManager) BalanceRepository() domain.BalanceRepository {
	return r.balanceRepository
}

func (r *repoManager) AllowanceRepository() domain.AllowanceRepository {
	return r.balanceRepository
}

func (r *repoManager) Close() {
	r.store.Close()
}

func (r *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if tx, ok := ctx.Value(txKey{}).(*badger.Txn); ok {
		if readOnly {
			return handler(ctx)
		}
		return runSavepoint(ctx, tx, handler)
	}

	tx := r.store.Badger().NewTransaction(!readOnly)
	defer tx.Discard()

	res, err := handler(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		return nil, err
	}

	if !readOnly {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// withTx runs fn with the transaction carried by ctx, or within a dedicated
// one otherwise.
func withTx(
	ctx context.Context, store *badgerhold.Store, readOnly bool,
	fn func(tx *badger.Txn) error,
) error {
	if tx, ok := ctx.Value(txKey{}).(*badger.Txn); ok {
		return fn(tx)
	}
	if readOnly {
		return store.Badger().View(fn)
	}
	return store.Badger().Update(fn)
}

// runSavepoint runs handler within the running transaction tx. If handler
// fails, everything it wrote is restored to its previous state, otherwise
// the restore steps are handed over to the enclosing savepoint, if any.
func runSavepoint(
	ctx context.Context, tx *badger.Txn,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	sp := &savepoint{}
	res, err := handler(context.WithValue(ctx, savepointKey{}, sp))
	if err != nil {
		for i := len(sp.undo) - 1; i >= 0; i-- {
			if undoErr := sp.undo[i](tx); undoErr != nil {
				return nil, fmt.Errorf("%w: rolling back savepoint: %v", err, undoErr)
			}
		}
		return nil, err
	}
	if parent := savepointFromContext(ctx); parent != nil {
		parent.undo = append(parent.undo, sp.undo...)
	}
	return res, nil
}

// write runs fn with the write transaction carried by ctx, or within a
// dedicated one otherwise. Within a savepoint, the record of type T stored
// at key is remembered first so that it can be restored.
func write[T any](
	ctx context.Context, store *badgerhold.Store, key interface{},
	fn func(tx *badger.Txn) error,
) error {
	sp := savepointFromContext(ctx)
	return withTx(ctx, store, false, func(tx *badger.Txn) error {
		if sp != nil {
			var prev T
			err := store.TxGet(tx, key, &prev)
			switch {
			case err == nil:
				sp.undo = append(sp.undo, func(tx *badger.Txn) error {
					return store.TxUpsert(tx, key, prev)
				})
			case errors.Is(err, badgerhold.ErrNotFound):
				sp.undo = append(sp.undo, func(tx *badger.Txn) error {
					var zero T
					return store.TxDelete(tx, key, zero)
				})
			default:
				return err
			}
		}
		return fn(tx)
	})
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	var opts badger.Options
	if dbDir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dbDir)
	}
	opts.Logger = logger
	opts.Compression = options.ZSTD

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
