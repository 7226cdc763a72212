package chat

import (
	"errors"
	"strings"
	"sync"
)

var (
	ErrEmptyInput = errors.New("input is empty")
	ErrBusy       = errors.New("a question is already in flight")
)

// Input holds the pending text and whether a request is outstanding.
type Input struct {
	mu       sync.Mutex
	value    string
	inFlight bool
}

func (in *Input) SetValue(s string) {
	in.mu.Lock()
	in.value = s
	in.mu.Unlock()
}

func (in *Input) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.value
}

// Busy reports whether submissions are disabled.
func (in *Input) Busy() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.inFlight
}

// Submit returns the trimmed pending text, clears it and marks a request in
// flight. The pending text is left untouched when Submit fails.
func (in *Input) Submit() (string, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.inFlight {
		return "", ErrBusy
	}
	text := strings.TrimSpace(in.value)
	if text == "" {
		return "", ErrEmptyInput
	}
	in.value = ""
	in.inFlight = true
	return text, nil
}

// Resolve re-enables submissions once the outstanding request completes.
func (in *Input) Resolve() {
	in.mu.Lock()
	in.inFlight = false
	in.mu.Unlock()
}
