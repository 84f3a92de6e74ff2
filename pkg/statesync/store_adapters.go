package statesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrChannelStoreClosed is returned when a channel store is written to after
// being closed.
var ErrChannelStoreClosed = errors.New("statesync: channel store closed")

// RecordSink receives every state record pushed to a callback store.
type RecordSink func(*StateRecord) error

// NewCallbackStore adapts a RecordSink into a write-only StateStore so
// callers can fan state out to arbitrary downstreams (webhooks, brokers)
// without defining structs. Reads always report ErrAbsent.
func NewCallbackStore(name string, fn RecordSink) StateStore {
	if name == "" {
		name = "callback"
	}
	return &callbackStore{name: name, fn: fn}
}

// NewChannelStore exposes written records via a channel; it returns the
// store, the read-only channel, and a close function the caller should
// invoke during shutdown.
func NewChannelStore(name string, buffer int) (StateStore, <-chan *StateRecord, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan *StateRecord, buffer)
	s := &channelStore{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackStore struct {
	name string
	fn   RecordSink
}

func (s *callbackStore) Write(_ context.Context, rec *StateRecord) error {
	if s.fn == nil {
		return fmt.Errorf("callback store %q: nil handler", s.name)
	}
	return s.fn(rec.Clone())
}

func (s *callbackStore) Read(context.Context) (*StateRecord, error) {
	return nil, ErrAbsent
}

func (s *callbackStore) Name() string { return s.name }

type channelStore struct {
	name   string
	ch     chan *StateRecord
	closed chan struct{}
	once   sync.Once
}

func (s *channelStore) Write(ctx context.Context, rec *StateRecord) error {
	select {
	case <-s.closed:
		return ErrChannelStoreClosed
	default:
	}

	select {
	case <-s.closed:
		return ErrChannelStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.ch <- rec.Clone():
		return nil
	}
}

func (s *channelStore) Read(context.Context) (*StateRecord, error) {
	return nil, ErrAbsent
}

func (s *channelStore) Name() string { return s.name }

func (s *channelStore) close() {
	s.once.Do(func() {
		close(s.closed)
		close(s.ch)
	})
}
