package domain

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// TokenManager is the owner-administered allow-list of tradable tokens.
type TokenManager struct {
	Address common.Address
	Ownable
	SupportedTokens map[common.Address]bool
}

// NewTokenManager returns an empty allow-list owned by owner.
func NewTokenManager(address, owner common.Address) (*TokenManager, error) {
	ownable, err := NewOwnable(owner)
	if err != nil {
		return nil, err
	}
	return &TokenManager{
		Address:         address,
		Ownable:         ownable,
		SupportedTokens: make(map[common.Address]bool),
	}, nil
}

// AddToken makes token tradable.
func (m *TokenManager) AddToken(caller, token common.Address) error {
	if err := m.OnlyOwner(caller); err != nil {
		return err
	}
	if token == (common.Address{}) {
		return ErrInvalidTokenAddress
	}
	if m.SupportedTokens[token] {
		return ErrTokenAlreadySupported
	}
	if m.SupportedTokens == nil {
		m.SupportedTokens = make(map[common.Address]bool)
	}
	m.SupportedTokens[token] = true
	return nil
}

// RemoveToken makes token no longer tradable.
func (m *TokenManager) RemoveToken(caller, token common.Address) error {
	if err := m.OnlyOwner(caller); err != nil {
		return err
	}
	if token == (common.Address{}) {
		return ErrInvalidTokenAddress
	}
	if !m.SupportedTokens[token] {
		return ErrTokenAlreadyNotSupported
	}
	delete(m.SupportedTokens, token)
	return nil
}

func (m *TokenManager) IsTokenSupported(token common.Address) bool {
	return m.SupportedTokens[token]
}

// Tokens returns the supported tokens sorted by address.
func (m *TokenManager) Tokens() []common.Address {
	tokens := make([]common.Address, 0, len(m.SupportedTokens))
	for token, ok := range m.SupportedTokens {
		if ok {
			tokens = append(tokens, token)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		return bytes.Compare(tokens[i][:], tokens[j][:]) < 0
	})
	return tokens
}

func (m TokenManager) Clone() TokenManager {
	supported := make(map[common.Address]bool, len(m.SupportedTokens))
	for k, v := range m.SupportedTokens {
		supported[k] = v
	}
	m.SupportedTokens = supported
	return m
}
