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
package rpc

import (
	"context"
	"crypto/tls"
	"net"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/uber/torrentd/rencode"
	"github.com/uber/torrentd/transport"
	"github.com/uber/torrentd/utils/syncutil"
)

// maxTokens bounds how many rencode tokens a single incoming message may
// decode into. A message that would overflow this is dropped and the
// connection closed, rather than letting an adversarial client force
// unbounded token-array growth.
const maxTokens = 200

// defaultWorkers is the fixed acceptor worker-pool size this daemon ships
// with; ServerConfig.Workers overrides it.
const defaultWorkers = 5

// ServerConfig configures a Server's listener and worker pool.
type ServerConfig struct {
	ListenAddr string

	// Workers is the number of connection-handling goroutines. Defaults
	// to 5 if zero.
	Workers int

	// AcceptRate throttles how fast the acceptor hands sockets to the
	// worker pool, defending against connection-flood abuse. Zero means
	// unthrottled.
	AcceptRate  rate.Limit
	AcceptBurst int
}

// Server is the TLS-terminating acceptor and fixed worker pool described by
// the control protocol: one goroutine accepts, a fixed pool handshakes and
// runs the per-connection frame loop.
type Server struct {
	ln         net.Listener
	tlsConfig  *tls.Config
	dispatcher *Dispatcher
	log        *zap.SugaredLogger

	jobs    chan net.Conn
	workers int
	limiter *rate.Limiter
	closing atomic.Bool

	// active holds one in-flight-connection counter per worker, indexed by
	// the worker goroutine's own index, so WorkerLoad can report per-worker
	// occupancy without a shared lock.
	active *syncutil.Counters
}

// NewServer binds cfg.ListenAddr and returns a Server ready for Serve.
func NewServer(cfg ServerConfig, tlsConfig *tls.Config, d *Dispatcher, log *zap.SugaredLogger) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	limit := cfg.AcceptRate
	if limit == 0 {
		limit = rate.Inf
	}
	burst := cfg.AcceptBurst
	if burst <= 0 {
		burst = workers
	}

	return &Server{
		ln:         ln,
		tlsConfig:  tlsConfig,
		dispatcher: d,
		log:        log,
		jobs:       make(chan net.Conn, workers),
		workers:    workers,
		limiter:    rate.NewLimiter(limit, burst),
		active:     syncutil.NewCounters(workers),
	}, nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// WorkerLoad returns the number of connections worker i is currently
// handling. i must be in [0, Workers).
func (s *Server) WorkerLoad(i int) int {
	return s.active.Get(i)
}

// Serve runs the acceptor and worker pool until ctx is canceled, then closes
// the listener and any sockets left queued for a worker.
func (s *Server) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.accept(gctx) })
	for i := 0; i < s.workers; i++ {
		i := i
		g.Go(func() error { return s.work(gctx, i) })
	}

	<-ctx.Done()
	closeErr := s.close()
	return multierr.Combine(closeErr, g.Wait())
}

func (s *Server) close() error {
	if !s.closing.CAS(false, true) {
		return nil
	}
	err := s.ln.Close()
	close(s.jobs)
	for nc := range s.jobs {
		nc.Close()
	}
	return err
}

func (s *Server) accept(ctx context.Context) error {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			s.log.Errorw("accept failed, shutting down acceptor", "error", err)
			return err
		}

		if err := s.limiter.Wait(ctx); err != nil {
			nc.Close()
			continue
		}

		select {
		case s.jobs <- nc:
		case <-ctx.Done():
			nc.Close()
			return nil
		}
	}
}

func (s *Server) work(ctx context.Context, worker int) error {
	for {
		select {
		case nc, ok := <-s.jobs:
			if !ok {
				return nil
			}
			s.active.Increment(worker)
			s.handleConn(ctx, nc)
			s.active.Decrement(worker)
		case <-ctx.Done():
			return nil
		}
	}
}

// handleConn performs the server-side TLS handshake, then runs the
// read-decode-dispatch-write loop until the connection closes or a framing
// error forces it closed. Handler-level errors never reach here -- the
// dispatcher already turned those into error response frames.
func (s *Server) handleConn(ctx context.Context, nc net.Conn) {
	tlsConn := tls.Server(nc, s.tlsConfig)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		s.log.Warnw("TLS handshake failed", "remote", nc.RemoteAddr(), "error", err)
		nc.Close()
		return
	}

	conn := transport.NewConn(tlsConn, s.log)
	defer conn.Close()

	tokens := make([]rencode.Token, maxTokens)
	for {
		buf, err := conn.ReadMessage(ctx)
		if err != nil {
			s.log.Debugw("connection closed", "remote", conn.RemoteAddr(), "error", err)
			return
		}

		n, err := rencode.Decode(buf, tokens)
		if err != nil {
			s.log.Warnw("malformed message, closing connection", "remote", conn.RemoteAddr(), "error", err)
			return
		}

		var writeErr error
		s.dispatcher.Dispatch(ctx, tokens[:n], buf, func(frame []byte) {
			if writeErr != nil {
				return
			}
			writeErr = conn.WriteMessage(ctx, frame)
		})
		if writeErr != nil {
			s.log.Warnw("write failed, closing connection", "remote", conn.RemoteAddr(), "error", writeErr)
			return
		}
	}
}
