// Copyright © 2020 Skyline Tools

package core

import (
	"sync"
	"sync/atomic"
)

// AbortFlag is the cooperative cancellation signal threaded through a job.
//
// It is raised by deep recursive logic on an unrecoverable condition or an
// operator's refusal to continue. Every recursive frame checks it after each
// child step and unwinds without further work, still flushing work already
// staged.
type AbortFlag struct {
	set    atomic.Bool
	mu     sync.Mutex
	reason string
}

// NewAbortFlag builds an unset flag.
func NewAbortFlag() *AbortFlag {
	return &AbortFlag{}
}

// Set raises the flag. The first reason wins; later ones are dropped.
func (a *AbortFlag) Set(reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.set.Load() {
		return
	}
	a.reason = reason
	a.set.Store(true)
}

// IsSet tells whether the flag has been raised.
func (a *AbortFlag) IsSet() bool {
	return a.set.Load()
}

// Reason yields the reason the flag was raised with, or the empty string.
func (a *AbortFlag) Reason() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reason
}
