package feed

import (
	"context"
	"sync"
)

// Ensure MemoryFeed implements Feed
var _ Feed = (*MemoryFeed)(nil)

// MemoryFeed fans events out to subscribers within a single process.
type MemoryFeed struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]Handler
}

// NewMemoryFeed creates an empty in-process feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[string]map[uint64]Handler)}
}

// Publish calls every handler subscribed to the event's room.
func (f *MemoryFeed) Publish(_ context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	// Copy handlers so they run without holding the lock
	f.mu.RLock()
	handlers := make([]Handler, 0, len(f.subs[event.RoomCode]))
	for _, h := range f.subs[event.RoomCode] {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

// Subscribe registers h for roomCode.
func (f *MemoryFeed) Subscribe(roomCode string, h Handler) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	if f.subs[roomCode] == nil {
		f.subs[roomCode] = make(map[uint64]Handler)
	}
	f.subs[roomCode][id] = h
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[roomCode], id)
			if len(f.subs[roomCode]) == 0 {
				delete(f.subs, roomCode)
			}
		})
	}
}

// Subscribers returns the number of active subscriptions for roomCode.
func (f *MemoryFeed) Subscribers(roomCode string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[roomCode])
}

// Close drops all subscriptions.
func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	f.subs = make(map[string]map[uint64]Handler)
	f.mu.Unlock()
	return nil
}
