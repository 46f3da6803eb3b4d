package inmemory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var errReadOnlyTx = errors.New("cannot write within a read-only transaction")

type txKey struct{}

// tx buffers the writes of a transaction until commit. Reads see the
// buffered writes first. A tx with a parent is a savepoint: its writes are
// merged into the parent on success and dropped otherwise.
type tx struct {
	store    *store
	parent   *tx
	readOnly bool
	writes   map[string]interface{}
}

func (t *tx) lookup(key string) (interface{}, bool) {
	for ; t != nil; t = t.parent {
		if v, ok := t.writes[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// store is a flat key-value map shared by all repositories of a manager.
// Values are treated as immutable: repositories put and get copies.
type store struct {
	lock *sync.RWMutex
	data map[string]interface{}
}

func newStore() *store {
	return &store{
		lock: &sync.RWMutex{},
		data: make(map[string]interface{}),
	}
}

func (s *store) txFromContext(ctx context.Context) *tx {
	if t, ok := ctx.Value(txKey{}).(*tx); ok && t.store == s {
		return t
	}
	return nil
}

func (s *store) get(ctx context.Context, key string) (interface{}, bool) {
	if v, ok := s.txFromContext(ctx).lookup(key); ok {
		return v, true
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	v, ok := s.data[key]
	return v, ok
}

func (s *store) put(ctx context.Context, key string, value interface{}) error {
	if t := s.txFromContext(ctx); t != nil {
		if t.readOnly {
			return errReadOnlyTx
		}
		t.writes[key] = value
		return nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.data[key] = value
	return nil
}

// scan returns the values of all keys with the given prefix sorted by key.
func (s *store) scan(ctx context.Context, prefix string) []interface{} {
	merged := make(map[string]interface{})

	s.lock.RLock()
	for k, v := range s.data {
		if strings.HasPrefix(k, prefix) {
			merged[k] = v
		}
	}
	s.lock.RUnlock()

	var chain []*tx
	for t := s.txFromContext(ctx); t != nil; t = t.parent {
		chain = append(chain, t)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].writes {
			if strings.HasPrefix(k, prefix) {
				merged[k] = v
			}
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		values = append(values, merged[k])
	}
	return values
}

func (s *store) runTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if parent := s.txFromContext(ctx); parent != nil {
		if readOnly || parent.readOnly {
			return handler(ctx)
		}
		return s.runSavepoint(ctx, parent, handler)
	}

	t := &tx{
		store:    s,
		readOnly: readOnly,
		writes:   make(map[string]interface{}),
	}
	res, err := handler(context.WithValue(ctx, txKey{}, t))
	if err != nil {
		return nil, err
	}
	if readOnly || len(t.writes) == 0 {
		return res, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	for k, v := range t.writes {
		s.data[k] = v
	}
	return res, nil
}

func (s *store) runSavepoint(
	ctx context.Context, parent *tx,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	t := &tx{
		store:  s,
		parent: parent,
		writes: make(map[string]interface{}),
	}
	res, err := handler(context.WithValue(ctx, txKey{}, t))
	if err != nil {
		return nil, err
	}
	for k, v := range t.writes {
		parent.writes[k] = v
	}
	return res, nil
}
