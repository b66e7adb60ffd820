// Package memory implements the card, attachment and comment repositories on
// process memory. It backs the "memory" storage mode and the HTTP tests.
//
// All three repositories share one Store so that foreign keys and cascades
// behave as in PostgreSQL: a child row needs an existing card, and deleting
// a card deletes its children.
package memory

import (
	"sync"

	"github.com/dmitrijs2005/flowrev/internal/server/models"
)

type state struct {
	cards       map[int64]*models.Card
	attachments map[int64]*models.Attachment
	comments    map[int64]*models.Comment

	lastCardID       int64
	lastAttachmentID int64
	lastCommentID    int64
}

func newState() state {
	return state{
		cards:       make(map[int64]*models.Card),
		attachments: make(map[int64]*models.Attachment),
		comments:    make(map[int64]*models.Comment),
	}
}

// clone copies the maps. Stored records are never mutated in place, so the
// pointers can be shared between the copies.
func (s state) clone() state {
	c := s
	c.cards = make(map[int64]*models.Card, len(s.cards))
	for k, v := range s.cards {
		c.cards[k] = v
	}
	c.attachments = make(map[int64]*models.Attachment, len(s.attachments))
	for k, v := range s.attachments {
		c.attachments[k] = v
	}
	c.comments = make(map[int64]*models.Comment, len(s.comments))
	for k, v := range s.comments {
		c.comments[k] = v
	}
	return c
}

// Store holds the rows of all tables behind a single lock.
type Store struct {
	mu   sync.RWMutex
	data state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) Cards() *Cards             { return &Cards{view{s: s}} }
func (s *Store) Attachments() *Attachments { return &Attachments{view{s: s}} }
func (s *Store) Comments() *Comments       { return &Comments{view{s: s}} }

// Atomically runs fn with exclusive access to the store. The repositories
// passed to fn must not be used after it returns. If fn returns an error or
// panics, every change it made is discarded.
func (s *Store) Atomically(fn func(cards *Cards, attachments *Attachments, comments *Comments) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
		if err != nil {
			s.data = snapshot
		}
	}()

	v := view{s: s, held: true}
	return fn(&Cards{v}, &Attachments{v}, &Comments{v})
}

// view is a handle on the store that knows whether the caller already holds
// the write lock.
type view struct {
	s    *Store
	held bool
}

func (v view) lock() func() {
	if v.held {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

func (v view) rlock() func() {
	if v.held {
		return func() {}
	}
	v.s.mu.RLock()
	return v.s.mu.RUnlock
}
