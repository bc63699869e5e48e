package feed

import (
	"context"
	"sync"

	"bookscope/internal/domain"
)

// Mailbox is a single-slot buffer between a venue stream and its book worker.
// Put overwrites any pending snapshot, so when the worker falls behind it
// always resumes from the venue's most recent state instead of draining a
// backlog of stale books.
type Mailbox struct {
	mu      sync.Mutex
	pending domain.RawBook
	has     bool
	ready   chan struct{}
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{ready: make(chan struct{}, 1)}
}

// Put deposits a snapshot, replacing any snapshot not yet taken.
func (m *Mailbox) Put(raw domain.RawBook) {
	m.mu.Lock()
	m.pending = raw
	m.has = true
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Take blocks until a snapshot is available or the context is cancelled.
func (m *Mailbox) Take(ctx context.Context) (domain.RawBook, error) {
	for {
		m.mu.Lock()
		if m.has {
			raw := m.pending
			m.has = false
			m.pending = domain.RawBook{}
			m.mu.Unlock()
			return raw, nil
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.RawBook{}, ctx.Err()
		case <-m.ready:
		}
	}
}
