// Package stream batches session output chunks into time windows for a
// single consumer.
package stream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// ErrClosed is returned by Send after the producer closed the stream
	ErrClosed = errors.New("stream closed")
	// ErrDetached is returned by Send after the consumer went away
	ErrDetached = errors.New("stream consumer detached")
)

// Config holds batching intervals
type Config struct {
	// Window is how long Next accumulates chunks before returning
	Window time.Duration
	// Idle is how long Next waits after an empty window
	Idle time.Duration
}

// DefaultConfig returns the standard batching intervals
func DefaultConfig() Config {
	return Config{
		Window: 100 * time.Millisecond,
		Idle:   50 * time.Millisecond,
	}
}

// Stream is an unbounded single-producer single-consumer chunk queue
type Stream struct {
	config Config

	mu       sync.Mutex
	queue    []string
	closed   bool
	detached bool

	notify chan struct{}
}

// New creates a stream with the given intervals. Zero values use defaults.
func New(config Config) *Stream {
	defaults := DefaultConfig()
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.Idle <= 0 {
		config.Idle = defaults.Idle
	}
	return &Stream{
		config: config,
		notify: make(chan struct{}, 1),
	}
}

// Send queues a chunk. It never blocks.
func (s *Stream) Send(chunk string) error {
	s.mu.Lock()
	switch {
	case s.detached:
		s.mu.Unlock()
		return ErrDetached
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	}
	s.queue = append(s.queue, chunk)
	s.mu.Unlock()

	s.wake()
	return nil
}

// Close marks the end of the producer's output. Queued chunks remain readable.
func (s *Stream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.wake()
}

// Detach marks the consumer as gone and discards anything queued
func (s *Stream) Detach() {
	s.mu.Lock()
	s.detached = true
	s.queue = nil
	s.mu.Unlock()

	s.wake()
}

// Closed reports whether the producer has closed the stream
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Stream) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// drain moves queued chunks into b and reports whether the stream is finished
func (s *Stream) drain(b *strings.Builder) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range s.queue {
		b.WriteString(chunk)
	}
	s.queue = s.queue[:0]
	return s.closed || s.detached
}

// Next collects chunks for one window and returns them concatenated.
// It returns early when the producer closes. An empty window is followed
// by the idle wait and an empty batch. more is false once the stream is
// closed and drained, or ctx is done; the final batch may still be non-empty.
func (s *Stream) Next(ctx context.Context) (batch string, more bool) {
	var b strings.Builder

	timer := time.NewTimer(s.config.Window)
	defer timer.Stop()

collect:
	for {
		if s.drain(&b) {
			return b.String(), false
		}
		select {
		case <-s.notify:
		case <-timer.C:
			break collect
		case <-ctx.Done():
			s.drain(&b)
			return b.String(), false
		}
	}

	if finished := s.drain(&b); finished {
		return b.String(), false
	}
	if b.Len() > 0 {
		return b.String(), true
	}

	idle := time.NewTimer(s.config.Idle)
	defer idle.Stop()
	select {
	case <-idle.C:
		return "", true
	case <-ctx.Done():
		return "", false
	}
}

// Run calls emit with every non-empty batch until the stream is closed and
// drained or ctx is done
func (s *Stream) Run(ctx context.Context, emit func(batch string)) error {
	for {
		batch, more := s.Next(ctx)
		if batch != "" {
			emit(batch)
		}
		if !more {
			return ctx.Err()
		}
	}
}
