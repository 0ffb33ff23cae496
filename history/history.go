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

// Package history holds the daemon's in-memory torrent registry: the
// authoritative view polling RPC and HTTP clients diff against to learn
// what changed since the frame number they last saw.
package history

import (
	"container/list"
	"sync"

	"github.com/andres-erbsen/clock"
	"go.uber.org/zap"

	"github.com/uber/torrentd/core"
)

// maxRemoved and minRemovedAge bound the removed-torrent FIFO: once it
// holds more than maxRemoved entries, entries older than minRemovedAge
// frames are dropped from the tail.
const (
	maxRemoved    = 1000
	minRemovedAge = 10
)

// entry is one live torrent's tracked state: its current status plus, for
// every tracked field, the frame number that field was last changed on.
type entry struct {
	status      core.TorrentStatus
	updateFrame int
	stamps      []int
}

func newEntry(status core.TorrentStatus, frame int) *entry {
	stamps := make([]int, core.NumTrackedFields())
	for i := range stamps {
		stamps[i] = frame
	}
	return &entry{status: status, updateFrame: frame, stamps: stamps}
}

type removedMark struct {
	frame int
	hash  core.InfoHash
}

// FieldUpdate is one live entry's status together with a snapshot of its
// per-field change frames, returned by UpdatedFieldsSince.
type FieldUpdate struct {
	Status core.TorrentStatus
	Stamps []int
}

// Registry is the bidirectional ordered map described by the torrent
// history component: a left-ordered view by most-recent update frame, a
// right index by info hash, a removed-torrent FIFO, and the frame counter.
// Every operation is safe for concurrent use.
type Registry struct {
	mu sync.Mutex

	order  *list.List // Value: *entry, front = most recently updated
	byHash map[core.InfoHash]*list.Element

	removed *list.List // Value: removedMark, front = most recently removed

	currentFrame int
	deferred     bool

	clock clock.Clock
	log   *zap.SugaredLogger
}

// New returns an empty Registry at frame 1.
func New(clk clock.Clock, log *zap.SugaredLogger) *Registry {
	return &Registry{
		order:        list.New(),
		byHash:       make(map[core.InfoHash]*list.Element),
		removed:      list.New(),
		currentFrame: 1,
		clock:        clk,
		log:          log,
	}
}

// OnAdd registers a newly added torrent at the next frame.
func (r *Registry) OnAdd(status core.TorrentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame := r.currentFrame + 1
	el := r.order.PushFront(newEntry(status, frame))
	r.byHash[status.InfoHash] = el
	r.deferred = true
}

// OnRemove retires a torrent at the next frame, recording it in the removed
// FIFO and dropping it from the live index.
func (r *Registry) OnRemove(hash core.InfoHash) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame := r.currentFrame + 1
	r.removed.PushFront(removedMark{frame: frame, hash: hash})
	if el, ok := r.byHash[hash]; ok {
		r.order.Remove(el)
		delete(r.byHash, hash)
	}
	r.trimRemoved()
	r.deferred = true
}

// OnRename migrates a live entry to a new info hash, preserving its
// per-field stamps, and records the old hash in the removed FIFO so
// pollers watching for removal see the identity change.
func (r *Registry) OnRename(oldHash, newHash core.InfoHash) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame := r.currentFrame + 1
	r.removed.PushFront(removedMark{frame: frame, hash: oldHash})

	if el, ok := r.byHash[oldHash]; ok {
		e := el.Value.(*entry)
		r.order.Remove(el)
		delete(r.byHash, oldHash)

		e.status.InfoHash = newHash
		e.updateFrame = frame
		newEl := r.order.PushFront(e)
		r.byHash[newHash] = newEl
	}

	r.trimRemoved()
	r.deferred = true
}

// OnStateUpdate advances the frame counter and applies a batch of status
// snapshots reported together by the engine, stamping only the fields that
// actually changed on each affected entry.
func (r *Registry) OnStateUpdate(batch []core.TorrentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currentFrame++
	r.deferred = false
	frame := r.currentFrame

	for _, status := range batch {
		el, ok := r.byHash[status.InfoHash]
		if !ok {
			continue
		}
		e := el.Value.(*entry)
		for _, field := range e.status.Diff(status) {
			e.stamps[field] = frame
		}
		e.status = status
		e.updateFrame = frame
		r.order.MoveToFront(el)
	}
}

// UpdatedSince returns the status of every live entry updated after frame,
// most-recently-updated first.
func (r *Registry) UpdatedSince(frame int) []core.TorrentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []core.TorrentStatus
	for el := r.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if e.updateFrame <= frame {
			break
		}
		out = append(out, e.status)
	}
	return out
}

// UpdatedFieldsSince is UpdatedSince with each entry's per-field change
// frames attached, for callers that need to know which fields moved rather
// than just that the entry did.
func (r *Registry) UpdatedFieldsSince(frame int) []FieldUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []FieldUpdate
	for el := r.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if e.updateFrame <= frame {
			break
		}
		stamps := make([]int, len(e.stamps))
		copy(stamps, e.stamps)
		out = append(out, FieldUpdate{Status: e.status, Stamps: stamps})
	}
	return out
}

// RemovedSince returns the info hash of every torrent removed (or renamed
// away from) after frame, most-recently-removed first.
func (r *Registry) RemovedSince(frame int) []core.InfoHash {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []core.InfoHash
	for el := r.removed.Front(); el != nil; el = el.Next() {
		mark := el.Value.(removedMark)
		if mark.frame <= frame {
			break
		}
		out = append(out, mark.hash)
	}
	return out
}

// Get looks up a torrent by info hash. A miss returns a default-initialized
// status carrying only the queried hash.
func (r *Registry) Get(hash core.InfoHash) core.TorrentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.byHash[hash]; ok {
		return el.Value.(*entry).status
	}
	return core.TorrentStatus{InfoHash: hash}
}

// Frame returns the current frame number, first advancing it if a deferred
// mutation (add, remove, or rename) is outstanding.
func (r *Registry) Frame() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deferred {
		r.currentFrame++
		r.deferred = false
	}
	return r.currentFrame
}

// trimRemoved drops the oldest entries once the removed FIFO both exceeds
// maxRemoved and holds entries old enough that no in-flight poll could
// still need them. Caller must hold r.mu.
func (r *Registry) trimRemoved() {
	for r.removed.Len() > maxRemoved {
		back := r.removed.Back()
		mark := back.Value.(removedMark)
		if mark.frame >= r.currentFrame-minRemovedAge {
			break
		}
		r.removed.Remove(back)
		r.log.Debugw("evicted removed-torrent record",
			"info_hash", mark.hash.Hex(),
			"frame", mark.frame,
			"at", r.clock.Now(),
		)
	}
}
