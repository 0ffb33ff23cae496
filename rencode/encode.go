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
package rencode

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Encoder builds a single rencode message into a reusable byte buffer.
// Callers always know a container's arity up front (an RPC envelope is
// always a 4-item list, a response tuple a 3-item list, and so on), so
// AppendList and AppendDict take the item count at open time rather than
// exposing a separate "close" call.
type Encoder struct {
	buf   []byte
	stack []openContainer
}

type openContainer struct {
	remaining  int
	terminated bool
}

// NewEncoder returns an Encoder ready to build a message.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Clear resets e for reuse, keeping its underlying buffer allocation.
func (e *Encoder) Clear() {
	e.buf = e.buf[:0]
	e.stack = e.stack[:0]
}

// Data returns the encoded message built so far. The result is only a
// complete, decodable message once every container opened with AppendList or
// AppendDict has received its declared number of children.
func (e *Encoder) Data() []byte {
	return e.buf
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// afterAppend accounts for one child having been written to the container on
// top of the stack, if any, closing it (and any now-complete ancestor) once
// its declared arity is reached.
func (e *Encoder) afterAppend() {
	for len(e.stack) > 0 {
		top := &e.stack[len(e.stack)-1]
		top.remaining--
		if top.remaining > 0 {
			break
		}
		if top.terminated {
			e.buf = append(e.buf, chrTerm)
		}
		e.stack = e.stack[:len(e.stack)-1]
		// Closing this container is itself one child of its parent, so the
		// loop continues to unwind into the parent's remaining count.
	}
}

func (e *Encoder) open(children int, terminated bool) {
	if children == 0 {
		if terminated {
			e.buf = append(e.buf, chrTerm)
		}
		e.afterAppend()
		return
	}
	e.stack = append(e.stack, openContainer{remaining: children, terminated: terminated})
}

// AppendList opens a list of n items. The next n Append* calls (counting
// nested containers as one each) are its items.
func (e *Encoder) AppendList(n int) {
	if n >= 0 && n < listFixedCount {
		e.buf = append(e.buf, byte(listFixedStart+n))
		e.open(n, false)
		return
	}
	e.buf = append(e.buf, chrList)
	e.open(n, true)
}

// AppendDict opens a dict of n key/value pairs. The next 2n Append* calls
// are its keys and values, alternating.
func (e *Encoder) AppendDict(n int) {
	if n >= 0 && n < dictFixedCount {
		e.buf = append(e.buf, byte(dictFixedStart+n))
		e.open(n*2, false)
		return
	}
	e.buf = append(e.buf, chrDict)
	e.open(n*2, true)
}

// AppendInt appends a signed integer, using the shortest wire form that
// represents it exactly.
func (e *Encoder) AppendInt(v int64) {
	switch {
	case v >= 0 && v < intPosFixedCount:
		e.buf = append(e.buf, byte(intPosFixedStart+v))
	case v < 0 && v >= -int64(intNegFixedCount):
		e.buf = append(e.buf, byte(intNegFixedStart+(-v-1)))
	case v >= -1<<7 && v < 1<<7:
		e.buf = append(e.buf, chrInt1, byte(v))
	case v >= -1<<15 && v < 1<<15:
		e.buf = append(e.buf, chrInt2)
		e.buf = appendBE(e.buf, uint64(v), 2)
	case v >= -1<<31 && v < 1<<31:
		e.buf = append(e.buf, chrInt4)
		e.buf = appendBE(e.buf, uint64(v), 4)
	default:
		e.buf = append(e.buf, chrInt8)
		e.buf = appendBE(e.buf, uint64(v), 8)
	}
	e.afterAppend()
}

func appendBE(buf []byte, v uint64, width int) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v<<(uint(8-width)*8))
	return append(buf, tmp[:width]...)
}

// AppendString appends a byte string.
func (e *Encoder) AppendString(s []byte) {
	if len(s) < strFixedCount {
		e.buf = append(e.buf, byte(strFixedStart+len(s)))
	} else {
		e.buf = append(e.buf, strconv.Itoa(len(s))...)
		e.buf = append(e.buf, ':')
	}
	e.buf = append(e.buf, s...)
	e.afterAppend()
}

// AppendStr is a convenience wrapper around AppendString for Go strings.
func (e *Encoder) AppendStr(s string) {
	e.AppendString([]byte(s))
}

// AppendBool appends a boolean.
func (e *Encoder) AppendBool(b bool) {
	if b {
		e.buf = append(e.buf, chrTrue)
	} else {
		e.buf = append(e.buf, chrFalse)
	}
	e.afterAppend()
}

// AppendNull appends a null value.
func (e *Encoder) AppendNull() {
	e.buf = append(e.buf, chrNone)
	e.afterAppend()
}

// AppendFloat32 appends a 32-bit float.
func (e *Encoder) AppendFloat32(v float32) {
	e.buf = append(e.buf, chrFloat32)
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], math.Float32bits(v))
	e.buf = append(e.buf, tmp[:]...)
	e.afterAppend()
}

// AppendFloat64 appends a 64-bit float.
func (e *Encoder) AppendFloat64(v float64) {
	e.buf = append(e.buf, chrFloat64)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v))
	e.buf = append(e.buf, tmp[:]...)
	e.afterAppend()
}

// AppendFloat is an alias for AppendFloat32, the width used for every
// engine-reported fractional field (e.g. torrent progress).
func (e *Encoder) AppendFloat(v float32) {
	e.AppendFloat32(v)
}
