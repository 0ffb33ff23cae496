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

// Package transport implements the per-connection framing loop: TLS bytes
// in, zlib-inflated rencode messages out, and the symmetric path for
// replies. It knows nothing about RPC semantics -- that's the rpc package's
// job -- only about turning a byte stream into discrete messages and back.
package transport

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/uber/torrentd/lib/tracing"
)

const (
	// initialReadBufferSize is the read buffer's starting capacity, and
	// what it's reset to once fully drained.
	initialReadBufferSize = 2048

	// maxReadBufferSize bounds how large the read buffer may grow,
	// defending against a peer that never completes a message.
	maxReadBufferSize = 1 << 20 // 1 MiB

	// growThreshold is the minimum unused tail space the read buffer must
	// keep available before the next network read.
	growThreshold = 512

	// deflateLevel matches the "zlib level 9, single finish" framing the
	// existing control protocol uses.
	deflateLevel = zlib.BestCompression
)

// ErrMessageTooLarge is returned when a single inbound message would need
// more than maxReadBufferSize bytes of buffering to decode.
var ErrMessageTooLarge = errors.New("transport: message exceeds maximum buffered size")

// Conn wraps a net.Conn (expected to already be a completed *tls.Conn) with
// the growable read buffer and streaming zlib framing described by the
// control protocol.
type Conn struct {
	nc  net.Conn
	log *zap.SugaredLogger

	buf []byte // buf[:n] holds unconsumed bytes read from nc
	n   int
}

// NewConn wraps nc for message-oriented reads and writes.
func NewConn(nc net.Conn, log *zap.SugaredLogger) *Conn {
	return &Conn{
		nc:  nc,
		log: log,
		buf: make([]byte, initialReadBufferSize),
	}
}

// RemoteAddr returns the underlying connection's remote address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// ReadMessage blocks until one full message has been read and inflated, or
// an unrecoverable framing error occurs (in which case the connection must
// be torn down). It pipelines: if a second message is already fully
// buffered after the first is consumed, subsequent calls return it without
// another network read.
func (c *Conn) ReadMessage(ctx context.Context) ([]byte, error) {
	ctx, endSpan := tracing.StartSpan(ctx, "transport.ReadMessage")
	defer endSpan()

	for {
		if c.n > 0 {
			inflated, consumed, ok, err := tryInflate(c.buf[:c.n])
			if err != nil {
				tracing.RecordSpanError(ctx, err)
				return nil, fmt.Errorf("inflate: %w", err)
			}
			if ok {
				c.consume(consumed)
				tracing.SetSpanAttributes(ctx, tracing.AttrMessageSz.Int(len(inflated)))
				tracing.SetSpanOK(ctx)
				return inflated, nil
			}
		}

		if err := c.growIfNeeded(); err != nil {
			tracing.RecordSpanError(ctx, err)
			return nil, err
		}

		read, err := c.nc.Read(c.buf[c.n:])
		if err != nil {
			return nil, err
		}
		c.n += read
	}
}

// WriteMessage deflates payload at level 9 in one shot and writes the
// result to the connection. crypto/tls flushes each Write as its own set of
// TLS records, so no separate flush step is needed after the write
// completes.
func (c *Conn) WriteMessage(ctx context.Context, payload []byte) error {
	ctx, endSpan := tracing.StartSpan(ctx, "transport.WriteMessage")
	defer endSpan()

	var out bytes.Buffer
	zw, err := zlib.NewWriterLevel(&out, deflateLevel)
	if err != nil {
		return err
	}
	if _, err := zw.Write(payload); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if _, err := c.nc.Write(out.Bytes()); err != nil {
		tracing.RecordSpanError(ctx, err)
		return err
	}
	tracing.SetSpanAttributes(ctx, tracing.AttrMessageSz.Int(len(payload)))
	tracing.SetSpanOK(ctx)
	return nil
}

// growIfNeeded doubles the read buffer when less than growThreshold bytes
// of tail space remain, capping growth at maxReadBufferSize.
func (c *Conn) growIfNeeded() error {
	if len(c.buf)-c.n >= growThreshold {
		return nil
	}
	if len(c.buf) >= maxReadBufferSize {
		return ErrMessageTooLarge
	}
	newSize := len(c.buf) * 2
	if newSize > maxReadBufferSize {
		newSize = maxReadBufferSize
	}
	grown := make([]byte, newSize)
	copy(grown, c.buf[:c.n])
	c.buf = grown
	return nil
}

// consume removes the first n bytes from the read buffer, shifting the
// remainder to the front so a pipelined second message can be parsed
// without another network read. The buffer is reset to its initial
// capacity once fully drained.
func (c *Conn) consume(n int) {
	remaining := c.n - n
	copy(c.buf, c.buf[n:c.n])
	c.n = remaining
	if c.n == 0 && len(c.buf) != initialReadBufferSize {
		c.buf = make([]byte, initialReadBufferSize)
	}
}

// countingReader tracks how many bytes have been read from the underlying
// reader, so tryInflate can report exactly how much of the input buffer a
// successful decode consumed. It implements io.ByteReader as well as
// io.Reader: compress/flate only wraps its source in a buffered reader (and
// so only pulls bytes in large, boundary-blind chunks) when the source
// doesn't already provide ReadByte. Exposing ReadByte here makes flate pull
// exactly the bytes the deflate stream needs, byte by byte, which is what
// lets consumed() equal the true length of one message when a second,
// pipelined message's bytes immediately follow it in data.
type countingReader struct {
	r *bytes.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

// tryInflate attempts to zlib-inflate one complete message from the front
// of data. ok is false (with a nil error) when data doesn't yet hold a
// complete compressed stream and the caller should read more from the
// network before retrying. A non-nil error is unrecoverable.
func tryInflate(data []byte) (inflated []byte, consumed int, ok bool, err error) {
	cr := &countingReader{r: bytes.NewReader(data)}
	zr, err := zlib.NewReader(cr)
	if err != nil {
		if isIncompleteStream(err) {
			return nil, 0, false, nil
		}
		return nil, 0, false, err
	}
	defer zr.Close()

	var out bytes.Buffer
	out.Grow(len(data) * 10)
	if _, err := out.ReadFrom(zr); err != nil {
		if isIncompleteStream(err) {
			return nil, 0, false, nil
		}
		return nil, 0, false, err
	}
	return out.Bytes(), cr.n, true, nil
}

func isIncompleteStream(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}
