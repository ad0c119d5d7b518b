// Package keylock serializes read-compute-write sequences per key
// (one order, one stock cell, one inventory item).
package keylock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrLockTimeout is returned when a key stays busy longer than the caller is willing to wait
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Locker acquires an exclusive lock on a key. The returned func releases it and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// OrderKey is the lock key for deliveries against one order
func OrderKey(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}

// CellKey is the lock key for one (product, warehouse) stock cell
func CellKey(productID, warehouseID uuid.UUID) string {
	return fmt.Sprintf("stock:%s:%s", productID, warehouseID)
}

// InventoryKey is the lock key for one checked-out inventory item
func InventoryKey(itemID uuid.UUID) string {
	return "inventory:" + itemID.String()
}

type memoryEntry struct {
	sem  chan struct{}
	refs int
}

// MemoryLocker is an in-process per-key mutex map. Entries are dropped once no goroutine holds or waits on them.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]*memoryEntry)}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &memoryEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.sem
				l.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, ctx.Err())
	}
}

func (l *MemoryLocker) release(key string, e *memoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Len reports how many keys are currently held or awaited
func (l *MemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
