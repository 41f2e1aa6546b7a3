package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/membership/svc/payment"
)

// TransactionStore implements payment.TransactionStore in a map.
type TransactionStore struct {
	mu  sync.Mutex
	txs map[string]*payment.Transaction
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{txs: make(map[string]*payment.Transaction)}
}

func (s *TransactionStore) Create(_ context.Context, tx *payment.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[tx.SessionID]; ok {
		return payment.ErrDuplicateTransaction
	}
	s.txs[tx.SessionID] = tx.Clone()
	return nil
}

func (s *TransactionStore) Get(_ context.Context, sessionID string) (*payment.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[sessionID]
	if !ok {
		return nil, payment.ErrTransactionNotFound
	}
	return tx.Clone(), nil
}

func (s *TransactionStore) Transition(_ context.Context, sessionID string, from, to payment.Status, gatewayTxID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[sessionID]
	if !ok || tx.Status != from {
		return false, nil
	}
	tx.Status = to
	tx.UpdatedAt = at
	if gatewayTxID != "" {
		tx.GatewayTransactionID = gatewayTxID
	}
	if to == payment.StatusCompleted {
		completed := at
		tx.CompletedAt = &completed
	}
	return true, nil
}
