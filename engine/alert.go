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
package engine

import "github.com/uber/torrentd/core"

// AlertKind identifies which of the four alert kinds the engine emits.
type AlertKind int

// The four alert kinds the engine is permitted to emit; alerts is a closed
// sum type over exactly these.
const (
	AlertAdded AlertKind = iota
	AlertRemoved
	AlertRenamed
	AlertStateUpdate
)

// Alert is one event the engine reports. Exactly one of the kind-specific
// fields is meaningful, selected by Kind.
type Alert struct {
	Kind AlertKind

	// Added carries the newly added torrent's status. Meaningful iff
	// Kind == AlertAdded.
	Added core.TorrentStatus

	// Removed carries the removed torrent's identity. Meaningful iff
	// Kind == AlertRemoved.
	Removed core.InfoHash

	// RenamedFrom and RenamedTo carry the identity migration. Meaningful
	// iff Kind == AlertRenamed.
	RenamedFrom core.InfoHash
	RenamedTo   core.InfoHash

	// StateUpdateBatch carries every torrent's current status, reported
	// together once per engine tick. Meaningful iff Kind ==
	// AlertStateUpdate.
	StateUpdateBatch []core.TorrentStatus
}
