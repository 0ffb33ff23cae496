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
package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/andres-erbsen/clock"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.uber.org/zap"

	"github.com/uber/torrentd/core"
	"github.com/uber/torrentd/history"
)

type fakeHealth struct{ alive bool }

func (f fakeHealth) Alive() bool { return f.alive }

func TestHandleStatusUpdated(t *testing.T) {
	require := require.New(t)

	h := history.New(clock.NewMock(), zap.NewNop().Sugar())
	status := core.TorrentStatusFixture()
	h.OnAdd(status)

	s := New(h, fakeHealth{alive: true}, tally.NoopScope, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodGet, "/status/updated?since=0", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
	var got []core.TorrentStatus
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(got, 1)
	require.Equal(status.InfoHash, got[0].InfoHash)
}

func TestHandleStatusRemoved(t *testing.T) {
	require := require.New(t)

	h := history.New(clock.NewMock(), zap.NewNop().Sugar())
	status := core.TorrentStatusFixture()
	h.OnAdd(status)
	frame := h.Frame()
	h.OnRemove(status.InfoHash)

	s := New(h, fakeHealth{alive: true}, tally.NoopScope, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodGet, "/status/removed?since="+strconv.Itoa(frame), nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
	var got []core.InfoHash
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal([]core.InfoHash{status.InfoHash}, got)
}

func TestHandleStatusUpdatedInvalidSince(t *testing.T) {
	require := require.New(t)

	h := history.New(clock.NewMock(), zap.NewNop().Sugar())
	s := New(h, fakeHealth{alive: true}, tally.NoopScope, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodGet, "/status/updated?since=notanumber", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(http.StatusBadRequest, rec.Code)
}

func TestHandleHealthz(t *testing.T) {
	require := require.New(t)

	h := history.New(clock.NewMock(), zap.NewNop().Sugar())

	healthy := New(h, fakeHealth{alive: true}, tally.NoopScope, zap.NewNop().Sugar())
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(http.StatusOK, rec.Code)

	unhealthy := New(h, fakeHealth{alive: false}, tally.NoopScope, zap.NewNop().Sugar())
	rec = httptest.NewRecorder()
	unhealthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(http.StatusServiceUnavailable, rec.Code)
}
