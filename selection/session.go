package selection

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bitfsorg/libledger-go/ledger"
)

// Session tracks the UTXOs claimed during one transfer attempt. A claimed
// UTXO is never offered again within the session. Sessions never touch
// the store.
type Session struct {
	id uuid.UUID

	mu      sync.Mutex
	claimed map[uint64]struct{}
}

// NewSession starts a session with a fresh random id.
func NewSession() *Session {
	return &Session{
		id:      uuid.New(),
		claimed: make(map[uint64]struct{}),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id.String() }

// Claim marks ids as used.
func (s *Session) Claim(ids ...uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.claimed[id] = struct{}{}
	}
}

// Claimed reports whether id has been claimed.
func (s *Session) Claimed(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.claimed[id]
	return ok
}

// Release drops every claim.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.claimed)
}

// Unclaimed returns the candidates not yet claimed, preserving order.
func (s *Session) Unclaimed(candidates []*ledger.UTXO) []*ledger.UTXO {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ledger.UTXO, 0, len(candidates))
	for _, u := range candidates {
		if _, ok := s.claimed[u.ID]; !ok {
			out = append(out, u)
		}
	}
	return out
}

func (s *Session) claimAll(utxos []*ledger.UTXO) {
	ids := make([]uint64, len(utxos))
	for i, u := range utxos {
		ids[i] = u.ID
	}
	s.Claim(ids...)
}
