package erc20

import (
	"bytes"
	"sort"
	"sync"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/domain"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/ethereum/go-ethereum/common"
)

// Registry resolves token contracts by address.
type Registry struct {
	lock   *sync.RWMutex
	tokens map[common.Address]ports.Token
}

func NewRegistry(tokens ...ports.Token) *Registry {
	r := &Registry{
		lock:   &sync.RWMutex{},
		tokens: make(map[common.Address]ports.Token),
	}
	for _, token := range tokens {
		r.Register(token)
	}
	return r
}

// Register adds a token, replacing any other at the same address.
func (r *Registry) Register(token ports.Token) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.tokens[token.Address()] = token
}

func (r *Registry) Token(address common.Address) (ports.Token, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	token, ok := r.tokens[address]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return token, nil
}

// Tokens returns all registered tokens sorted by address.
func (r *Registry) Tokens() []ports.Token {
	r.lock.RLock()
	defer r.lock.RUnlock()

	tokens := make([]ports.Token, 0, len(r.tokens))
	for _, token := range r.tokens {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		a, b := tokens[i].Address(), tokens[j].Address()
		return bytes.Compare(a[:], b[:]) < 0
	})
	return tokens
}
