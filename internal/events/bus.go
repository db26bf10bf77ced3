// Package events fans out change notifications for the stored collections.
package events

import (
	"slices"
	"sync"
	"time"
)

type Collection string

const (
	Categories     Collection = "categories"
	Expenses       Collection = "expenses"
	MonthlyBudgets Collection = "monthlyBudgets"
)

// AllCollections lists every collection a Change can refer to.
var AllCollections = []Collection{Categories, Expenses, MonthlyBudgets}

type Op string

const (
	OpAdd     Op = "add"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpReplace Op = "replace"
)

// Change describes one committed mutation. ID is zero for OpReplace.
type Change struct {
	Collection Collection `json:"collection"`
	Op         Op         `json:"op"`
	ID         int64      `json:"id,omitempty"`
	At         time.Time  `json:"at"`
}

type subscriber struct {
	id    uint64
	fn    func(Change)
	watch []Collection
}

func (s subscriber) wants(c Collection) bool {
	return len(s.watch) == 0 || slices.Contains(s.watch, c)
}

// Bus delivers changes synchronously, in subscription order, on the
// publishing goroutine. Subscribers must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for the given collections, or for all of them when
// none are named. The returned func removes the subscription.
func (b *Bus) Subscribe(fn func(Change), collections ...Collection) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn, watch: collections})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.subs = slices.DeleteFunc(b.subs, func(s subscriber) bool { return s.id == id })
		})
	}
}

// Publish calls every interested subscriber outside the lock, so a callback
// may itself subscribe or unsubscribe.
func (b *Bus) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now()
	}
	b.mu.RLock()
	targets := make([]subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s.wants(c.Collection) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		s.fn(c)
	}
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
