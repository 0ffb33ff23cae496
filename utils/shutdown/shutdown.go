// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package shutdown coordinates graceful teardown: a context that cancels
// once, and a LIFO stack of cleanup functions run in reverse registration
// order so later-acquired resources (e.g. a listener opened after its
// backing engine) tear down before the resources they depend on.
package shutdown

import (
	"context"
	"sync"

	"github.com/uber/torrentd/utils/log"
)

// Handler owns the daemon's root context and its cleanup stack.
type Handler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	cleanups []func() error
	once     sync.Once
}

// New returns a Handler derived from parent.
func New(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	return &Handler{ctx: ctx, cancel: cancel}
}

// Context returns the handler's context, canceled once Shutdown runs.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// AddCleanup registers f to run during Shutdown. Functions run in LIFO
// order: the most recently added runs first.
func (h *Handler) AddCleanup(f func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanups = append(h.cleanups, f)
}

// Shutdown cancels the handler's context and runs every registered cleanup
// in LIFO order, logging (not stopping on) individual failures. Safe to
// call more than once; only the first call has any effect.
func (h *Handler) Shutdown() {
	h.once.Do(func() {
		h.cancel()

		h.mu.Lock()
		cleanups := h.cleanups
		h.mu.Unlock()

		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				log.Default().Errorf("Shutdown cleanup error: %s", err)
			}
		}
	})
}
