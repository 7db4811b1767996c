package ai

import (
	"context"
	"errors"
)

// ErrTruncated marks a stream that ended before the upstream signalled
// completion. The fragments already delivered are not a final answer and
// must not be persisted as one.
var ErrTruncated = errors.New("stream truncated before completion")

// Stream delivers completion fragments in arrival order to a single
// consumer. The fragment channel is closed when the stream ends; only then
// is Err valid. A nil Err means the upstream signalled a clean completion.
type Stream struct {
	ch  chan string
	err error
}

// Fragments returns the channel fragments arrive on. Consume until closed,
// then check Err.
func (s *Stream) Fragments() <-chan string { return s.ch }

// Err reports how the stream terminated. Valid only after Fragments is
// closed.
func (s *Stream) Err() error { return s.err }

// NewStream returns a stream and the producer handle that feeds it. Client
// implementations and test fakes are the only intended producers.
func NewStream(buffer int) (*Stream, *StreamProducer) {
	s := &Stream{ch: make(chan string, buffer)}
	return s, &StreamProducer{s: s}
}

// StreamProducer is the write side of a Stream.
type StreamProducer struct {
	s *Stream
}

// Send delivers one fragment. It returns false when ctx is cancelled, which
// means the consumer is gone and the producer must stop without error.
func (p *StreamProducer) Send(ctx context.Context, fragment string) bool {
	select {
	case p.s.ch <- fragment:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close terminates the stream. err is nil for a clean completion; anything
// else marks the delivered fragments as partial.
func (p *StreamProducer) Close(err error) {
	p.s.err = err
	close(p.s.ch)
}
