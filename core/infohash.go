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
	"bytes"
	"encoding/hex"
	"fmt"
)

// InfoHash is the 20-byte SHA1 info hash the engine uses to identify a
// torrent. It is the identity key for every entry in the history registry
// and is stable for the life of a torrent unless the engine emits a rename
// alert migrating it to a new hash.
type InfoHash [20]byte

// ZeroInfoHash is the default value returned by history lookups that miss.
var ZeroInfoHash InfoHash

// NewInfoHashFromHex converts a 40-character hexadecimal string into an
// InfoHash.
func NewInfoHashFromHex(s string) (InfoHash, error) {
	if len(s) != 40 {
		return InfoHash{}, fmt.Errorf("invalid hash: expected 40 characters, got %d", len(s))
	}
	var h InfoHash
	n, err := hex.Decode(h[:], []byte(s))
	if err != nil {
		return InfoHash{}, fmt.Errorf("invalid hex: %s", err)
	}
	if n != 20 {
		return InfoHash{}, fmt.Errorf("invariant violation: expected 20 bytes, got %d", n)
	}
	return h, nil
}

// NewInfoHashFromBytes copies 20 raw bytes, as handed to us by the engine,
// into an InfoHash.
func NewInfoHashFromBytes(b []byte) (InfoHash, error) {
	var h InfoHash
	if len(b) != 20 {
		return InfoHash{}, fmt.Errorf("invalid hash: expected 20 bytes, got %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Bytes converts h to raw bytes.
func (h InfoHash) Bytes() []byte {
	return h[:]
}

// Hex converts h into a hexadecimal string.
func (h InfoHash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h InfoHash) String() string {
	return h.Hex()
}

// IsZero reports whether h is the default, unset InfoHash -- the value
// history.Get returns for a miss.
func (h InfoHash) IsZero() bool {
	return h == ZeroInfoHash
}

// Less orders hashes lexicographically by their raw bytes. Used only to
// produce deterministic test fixtures; the history itself never orders by
// hash value.
func (h InfoHash) Less(other InfoHash) bool {
	return bytes.Compare(h[:], other[:]) < 0
}
