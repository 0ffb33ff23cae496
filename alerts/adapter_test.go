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
package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uber/torrentd/core"
	"github.com/uber/torrentd/engine"
	"github.com/uber/torrentd/history"
	mocks "github.com/uber/torrentd/mocks/engine"
)

func TestAdapterDispatchesAllFourAlertKinds(t *testing.T) {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := mocks.NewMockEngine(ctrl)
	alertCh := make(chan engine.Alert, 8)
	unsubscribed := make(chan struct{})
	mockEngine.EXPECT().Subscribe().Return((<-chan engine.Alert)(alertCh), func() { close(unsubscribed) })

	h := history.New(clock.NewMock(), zap.NewNop().Sugar())
	a := New(mockEngine, h, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	added := core.TorrentStatusFixture()
	alertCh <- engine.Alert{Kind: engine.AlertAdded, Added: added}

	require.Eventually(func() bool {
		return h.Get(added.InfoHash).Name == added.Name
	}, time.Second, time.Millisecond)

	alertCh <- engine.Alert{Kind: engine.AlertStateUpdate, StateUpdateBatch: []core.TorrentStatus{added}}
	renamedTo := core.InfoHashFixture()
	alertCh <- engine.Alert{Kind: engine.AlertRenamed, RenamedFrom: added.InfoHash, RenamedTo: renamedTo}

	require.Eventually(func() bool {
		return len(h.RemovedSince(0)) == 1
	}, time.Second, time.Millisecond)

	alertCh <- engine.Alert{Kind: engine.AlertRemoved, Removed: renamedTo}

	require.Eventually(func() bool {
		return len(h.RemovedSince(0)) == 2
	}, time.Second, time.Millisecond)

	cancel()
	require.Eventually(func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestAdapterStopsOnContextCancel(t *testing.T) {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := mocks.NewMockEngine(ctrl)
	alertCh := make(chan engine.Alert)
	mockEngine.EXPECT().Subscribe().Return((<-chan engine.Alert)(alertCh), func() {})

	h := history.New(clock.NewMock(), zap.NewNop().Sugar())
	a := New(mockEngine, h, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Run(ctx)
	require.ErrorIs(err, context.Canceled)
}
