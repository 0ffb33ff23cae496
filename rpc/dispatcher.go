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

// Package rpc implements the control-protocol method registry and request
// dispatch. It has no opinion on how bytes reach it (transport.Conn) or how
// responses are written back (also transport.Conn); it only turns a decoded
// envelope into a decoded response.
package rpc

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/uber/torrentd/lib/tracing"
	"github.com/uber/torrentd/rencode"
)

var (
	errUnknownMethod    = errors.New("unknown method")
	errInvalidArguments = errors.New("invalid arguments")
)

// envelopeSchema is the outer shape every request, and every sub-request of
// a batch, must match: [req_id, method, args, kwargs].
const envelopeSchema = "[is[]{}]"

// Handler implements one RPC method. args and kwargs are tokens describing
// the request's third and fourth envelope elements, already validated
// against the method's registered schema; buf is the decompressed message
// they were decoded from. The handler appends its response payload (the
// third element of the response envelope) to enc.
type Handler func(ctx context.Context, args, kwargs []rencode.Token, buf []byte, enc *rencode.Encoder) error

type methodEntry struct {
	schema  string
	handler Handler
}

// Dispatcher holds the method registry and turns decoded requests into
// encoded responses.
type Dispatcher struct {
	methods map[string]methodEntry
	log     *zap.SugaredLogger
}

// NewDispatcher returns an empty Dispatcher; call Register to populate it.
func NewDispatcher(log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		methods: make(map[string]methodEntry),
		log:     log,
	}
}

// Register adds method to the registry. schema validates the request's args
// and kwargs together, e.g. "[ss]{}" for two positional string args and an
// unconstrained (normally empty) kwargs dict.
func (d *Dispatcher) Register(method, schema string, h Handler) {
	d.methods[method] = methodEntry{schema: schema, handler: h}
}

// Dispatch decodes and handles one top-level message. tokens is the full
// token tree Decode produced for buf; reply is called once per response
// frame, in the order requests were issued -- more than once only for a
// batch request. reply's argument is an un-deflated rencode-encoded
// response envelope ready for transport.Conn.WriteMessage.
func (d *Dispatcher) Dispatch(ctx context.Context, tokens []rencode.Token, buf []byte, reply func([]byte)) {
	if len(tokens) == 0 {
		return
	}

	if isBatch(tokens) {
		idx := 1 // skip the outer list token itself
		for i := 0; i < tokens[0].NumItems; i++ {
			next := rencode.SkipItem(tokens, idx)
			d.dispatchOne(ctx, tokens[idx:next], buf, reply)
			idx = next
		}
		return
	}

	d.dispatchOne(ctx, tokens, buf, reply)
}

// isBatch reports whether tokens is a list of request lists rather than a
// single request. A single envelope's second element is always the req_id
// integer; a batch's second token is instead the first sub-request's list.
func isBatch(tokens []rencode.Token) bool {
	if len(tokens) < 2 || tokens[0].Kind != rencode.KindList {
		return false
	}
	return tokens[1].Kind == rencode.KindList
}

func (d *Dispatcher) dispatchOne(ctx context.Context, tokens []rencode.Token, buf []byte, reply func([]byte)) {
	if !rencode.Validate(tokens, envelopeSchema) {
		reqID := -1
		if len(tokens) > 1 && tokens[1].Kind == rencode.KindInt {
			reqID = int(tokens[1].Int)
		}
		d.log.Warnw("malformed RPC envelope, replying with req_id -1 if unparseable", "req_id", reqID)
		reply(encodeError(reqID, "invalid envelope"))
		return
	}

	reqID := int(tokens[1].Int)
	method := tokens[2].String(buf)

	ctx, endSpan := tracing.StartSpanWithAttributes(ctx, "rpc.dispatch",
		tracing.AttrMethod.String(method), tracing.AttrReqID.Int(reqID))
	defer endSpan()

	entry, ok := d.methods[method]
	if !ok {
		tracing.RecordSpanError(ctx, errUnknownMethod)
		reply(encodeError(reqID, "unknown method"))
		return
	}

	argsIdx := 3
	if !rencode.Validate(tokens[argsIdx:], entry.schema) {
		tracing.RecordSpanError(ctx, errInvalidArguments)
		reply(encodeError(reqID, "invalid arguments"))
		return
	}
	kwargsIdx := rencode.SkipItem(tokens, argsIdx)

	enc := rencode.NewEncoder()
	enc.AppendList(3)
	enc.AppendInt(tagResponse)
	enc.AppendInt(int64(reqID))
	if err := entry.handler(ctx, tokens[argsIdx:kwargsIdx], tokens[kwargsIdx:], buf, enc); err != nil {
		tracing.RecordSpanError(ctx, err)
		reply(encodeError(reqID, err.Error()))
		return
	}

	tracing.SetSpanOK(ctx)
	reply(enc.Data())
}
