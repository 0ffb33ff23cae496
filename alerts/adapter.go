// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package alerts adapts the engine's alert stream onto the history
// registry. It holds no torrent state of its own -- every alert kind maps
// directly onto one history.Registry operation.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/uber/torrentd/engine"
	"github.com/uber/torrentd/history"
)

// Adapter subscribes to an engine.Engine's alert stream and dispatches each
// alert into a history.Registry.
type Adapter struct {
	engine  engine.Engine
	history *history.Registry
	log     *zap.SugaredLogger
	alive   atomic.Bool
}

// New returns an Adapter wiring e's alerts into h.
func New(e engine.Engine, h *history.Registry, log *zap.SugaredLogger) *Adapter {
	return &Adapter{engine: e, history: h, log: log}
}

// Run consumes alerts until ctx is canceled. If the engine closes its
// alert channel -- e.g. a transient restart on the engine side -- Run
// resubscribes with exponential backoff, and returns an error once that
// backoff gives up.
func (a *Adapter) Run(ctx context.Context) error {
	a.alive.Store(true)
	defer a.alive.Store(false)

	b := backoff.NewExponentialBackOff()
	for {
		if err := a.consume(ctx); err != nil {
			return err
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return fmt.Errorf("alerts: engine alert subscription exhausted retries")
		}
		a.log.Warnw("engine alert channel closed, resubscribing", "backoff", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Alive reports whether Run is actively consuming alerts. httpapi's
// /healthz handler surfaces this directly.
func (a *Adapter) Alive() bool {
	return a.alive.Load()
}

// consume subscribes once and dispatches alerts until the channel closes or
// ctx is canceled. A nil return means the channel closed and the caller
// should resubscribe; a non-nil return means ctx was canceled and the
// caller should stop entirely.
func (a *Adapter) consume(ctx context.Context) error {
	alertCh, cancel := a.engine.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case alert, ok := <-alertCh:
			if !ok {
				return nil
			}
			a.dispatch(alert)
		}
	}
}

func (a *Adapter) dispatch(alert engine.Alert) {
	switch alert.Kind {
	case engine.AlertAdded:
		a.history.OnAdd(alert.Added)
	case engine.AlertRemoved:
		a.history.OnRemove(alert.Removed)
	case engine.AlertRenamed:
		a.history.OnRename(alert.RenamedFrom, alert.RenamedTo)
	case engine.AlertStateUpdate:
		a.history.OnStateUpdate(alert.StateUpdateBatch)
	default:
		a.log.Warnw("dropping alert of unrecognized kind", "kind", alert.Kind)
	}
}
