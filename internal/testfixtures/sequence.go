package testfixtures

import (
	"fmt"
	"sync"
)

// Sequence produces deterministic string values for tests, such as passphrase
// secrets and object names that must be unique within an event.
type Sequence struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewSequence constructs a sequence that yields values with the given prefix.
// When prefix is empty, "value" is used.
func NewSequence(prefix string) *Sequence {
	if prefix == "" {
		prefix = "value"
	}
	return &Sequence{prefix: prefix}
}

// Next returns the next value in the sequence.
func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return fmt.Sprintf("%s-%d", s.prefix, s.counter)
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (s *Sequence) NextFunc() func() string {
	if s == nil {
		return func() string { return "" }
	}
	return s.Next
}

// SetCounter overrides the internal counter, enabling deterministic resets.
func (s *Sequence) SetCounter(counter uint64) {
	s.mu.Lock()
	s.counter = counter
	s.mu.Unlock()
}
