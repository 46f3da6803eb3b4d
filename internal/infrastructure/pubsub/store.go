package pubsub

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/timshannon/badgerhold/v4"
)

var ErrSubscriptionNotFound = domain.NewError(
	"WebhookNotFound", domain.ErrClassNotFound, "webhook not found",
)

// SubscriptionStore persists webhook subscriptions.
type SubscriptionStore interface {
	Add(sub Subscription) error
	Get(id string) (*Subscription, error)
	Remove(id string) error
	// List returns the subscriptions for topic, or all of them if topic is
	// unspecified.
	List(topic string) ([]Subscription, error)
	Close() error
}

type badgerStore struct {
	store *badgerhold.Store
}

// NewBadgerStore opens (or creates if not exists) the subscription store
// under baseDbDir. An empty dir opens an in-memory store.
func NewBadgerStore(baseDbDir string, logger badger.Logger) (SubscriptionStore, error) {
	var opts badger.Options
	if baseDbDir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(filepath.Join(baseDbDir, "webhooks"))
	}
	opts.Logger = logger
	opts.Compression = options.ZSTD

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, fmt.Errorf("opening webhook db: %w", err)
	}
	return &badgerStore{store}, nil
}

func (s *badgerStore) Add(sub Subscription) error {
	err := s.store.Insert(sub.ID, sub)
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return nil
	}
	return err
}

func (s *badgerStore) Get(id string) (*Subscription, error) {
	var sub Subscription
	if err := s.store.Get(id, &sub); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *badgerStore) Remove(id string) error {
	err := s.store.Delete(id, Subscription{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return ErrSubscriptionNotFound
	}
	return err
}

func (s *badgerStore) List(topic string) ([]Subscription, error) {
	var query *badgerhold.Query
	if topic != ports.UnspecifiedTopic {
		query = badgerhold.Where("Event").Eq(topic).Index("Event")
	}
	var subs []Subscription
	if err := s.store.Find(&subs, query); err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *badgerStore) Close() error {
	return s.store.Close()
}

type inMemoryStore struct {
	lock *sync.RWMutex
	subs map[string]Subscription
}

func NewInMemoryStore() SubscriptionStore {
	return &inMemoryStore{
		lock: &sync.RWMutex{},
		subs: make(map[string]Subscription),
	}
}

func (s *inMemoryStore) Add(sub Subscription) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.subs[sub.ID]; !ok {
		s.subs[sub.ID] = sub
	}
	return nil
}

func (s *inMemoryStore) Get(id string) (*Subscription, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return &sub, nil
}

func (s *inMemoryStore) Remove(id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.subs[id]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(s.subs, id)
	return nil
}

func (s *inMemoryStore) List(topic string) ([]Subscription, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	subs := make([]Subscription, 0)
	for _, sub := range s.subs {
		if topic == ports.UnspecifiedTopic || sub.Event == topic {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (s *inMemoryStore) Close() error {
	return nil
}
