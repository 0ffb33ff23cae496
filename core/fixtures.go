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
package core

import (
	"crypto/rand"
	"fmt"
)

// InfoHashFixture returns a randomly generated InfoHash for tests.
func InfoHashFixture() InfoHash {
	var h InfoHash
	if _, err := rand.Read(h[:]); err != nil {
		panic(err)
	}
	return h
}

// TorrentStatusFixture returns a randomly named TorrentStatus with a fresh
// InfoHash, for use as a seed value in history/rpc tests.
func TorrentStatusFixture() TorrentStatus {
	h := InfoHashFixture()
	return TorrentStatus{
		InfoHash: h,
		State:    1,
		Name:     fmt.Sprintf("fixture-%s", h.Hex()[:8]),
		SavePath: "/var/lib/torrentd/downloads",
	}
}
