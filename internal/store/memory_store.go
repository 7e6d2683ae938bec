package store

import (
	"fmt"
	"sync"
	"time"
)

const (
	memoryStoreMaxSize = 60000 // maximum number of transactions to store in memory
)

type entry struct {
	tx        *Transaction
	expiresAt time.Time
}

type memoryStore struct {
	maxSize       int
	transactions  map[string]*entry
	evictionQueue []string
	mu            sync.Mutex

	nowFunc func() time.Time
}

func NewMemoryStore() *memoryStore {
	return &memoryStore{
		maxSize:      memoryStoreMaxSize,
		transactions: make(map[string]*entry),
		nowFunc:      time.Now,
	}
}

func (m *memoryStore) StoreTransaction(state string, tx *Transaction) error {
	if state == "" {
		return fmt.Errorf("state must not be empty")
	}
	if size := tx.size(); size > transactionMaxSize {
		return fmt.Errorf("transaction size exceeds maximum of %d bytes: %d", transactionMaxSize, size)
	}

	m.mu.Lock()
	defer func() { m.collectGarbage(); m.mu.Unlock() }()

	if e, ok := m.transactions[state]; ok && m.nowFunc().Before(e.expiresAt) {
		return ErrDuplicateState
	}

	// Enforce maximum size.
	for len(m.transactions) >= m.maxSize && len(m.evictionQueue) > 0 {
		oldest := m.evictionQueue[0]
		m.evictionQueue = m.evictionQueue[1:]
		delete(m.transactions, oldest)
	}

	m.transactions[state] = &entry{tx: tx, expiresAt: m.nowFunc().Add(timeout)}
	m.evictionQueue = append(m.evictionQueue, state)
	return nil
}

func (m *memoryStore) RetrieveTransaction(state string) (*Transaction, bool) {
	m.mu.Lock()
	e, ok := m.transactions[state]
	delete(m.transactions, state)
	m.collectGarbage()
	now := m.nowFunc()
	m.mu.Unlock()

	if !ok || !now.Before(e.expiresAt) {
		return nil, false
	}
	return e.tx, true
}

func (m *memoryStore) collectGarbage() {
	now := m.nowFunc()
	var evictionQueue []string
	seen := make(map[string]bool, len(m.evictionQueue))
	for _, state := range m.evictionQueue {
		e, ok := m.transactions[state]
		if !ok || seen[state] {
			continue
		}
		seen[state] = true
		if now.Before(e.expiresAt) {
			evictionQueue = append(evictionQueue, state)
		} else {
			delete(m.transactions, state)
		}
	}
	m.evictionQueue = evictionQueue
}
