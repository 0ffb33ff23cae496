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
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mocks "github.com/uber/torrentd/mocks/engine"
	"github.com/uber/torrentd/rencode"
	"github.com/uber/torrentd/transport"
)

func selfSignedTLSConfig(t *testing.T) *tls.Config {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "torrentd-test"},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	require.NoError(t, err)

	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}
}

func startTestServer(t *testing.T) (addr string, e *mocks.MockEngine) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	e = mocks.NewMockEngine(ctrl)

	d := NewDispatcher(zap.NewNop().Sugar())
	RegisterHandlers(d, e)

	srv, err := NewServer(ServerConfig{ListenAddr: "127.0.0.1:0"}, selfSignedTLSConfig(t), d, zap.NewNop().Sugar())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return srv.Addr().String(), e
}

func dialTestServer(t *testing.T, addr string) *transport.Conn {
	t.Helper()
	nc, err := tls.Dial("tcp", addr, &tls.Config{InsecureSkipVerify: true})
	require.NoError(t, err)
	t.Cleanup(func() { nc.Close() })
	return transport.NewConn(nc, zap.NewNop().Sugar())
}

func TestServerHandlesLoginOverTLS(t *testing.T) {
	require := require.New(t)
	addr, _ := startTestServer(t)
	conn := dialTestServer(t, addr)

	enc := rencode.NewEncoder()
	enc.AppendList(4)
	enc.AppendInt(1)
	enc.AppendStr("daemon.login")
	enc.AppendList(2)
	enc.AppendStr("user")
	enc.AppendStr("pw")
	enc.AppendDict(0)

	ctx := context.Background()
	require.NoError(conn.WriteMessage(ctx, enc.Data()))

	reply, err := conn.ReadMessage(ctx)
	require.NoError(err)

	tokens := make([]rencode.Token, 16)
	n, err := rencode.Decode(reply, tokens)
	require.NoError(err)
	require.Equal(int64(tagResponse), tokens[:n][1].Int)
	require.Equal(int64(1), tokens[:n][2].Int)
}

func TestServerHandlesMultipleRequestsOnOneConnection(t *testing.T) {
	require := require.New(t)
	addr, e := startTestServer(t)
	conn := dialTestServer(t, addr)
	ctx := context.Background()

	e.EXPECT().UserAgent().Return("torrentd/1.0")

	for i := 0; i < 2; i++ {
		enc := rencode.NewEncoder()
		enc.AppendList(4)
		enc.AppendInt(int64(i))
		if i == 0 {
			enc.AppendStr("daemon.info")
		} else {
			enc.AppendStr("no.such.method")
		}
		enc.AppendList(0)
		enc.AppendDict(0)
		require.NoError(conn.WriteMessage(ctx, enc.Data()))

		reply, err := conn.ReadMessage(ctx)
		require.NoError(err)
		tokens := make([]rencode.Token, 16)
		n, err := rencode.Decode(reply, tokens)
		require.NoError(err)
		require.Equal(int64(i), tokens[:n][2].Int)
	}
}

func TestServerClosesConnectionOnMalformedMessage(t *testing.T) {
	require := require.New(t)
	addr, _ := startTestServer(t)
	conn := dialTestServer(t, addr)
	ctx := context.Background()

	// A well-formed zlib/rencode frame but whose payload isn't a valid
	// rencode stream: the server should close the connection rather than
	// reply.
	require.NoError(conn.WriteMessage(ctx, []byte("not rencode")))

	_, err := conn.ReadMessage(ctx)
	require.Error(err)
}

func TestServerWorkerLoadTracksConcurrentConnections(t *testing.T) {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	e := mocks.NewMockEngine(ctrl)

	d := NewDispatcher(zap.NewNop().Sugar())
	RegisterHandlers(d, e)

	srv, err := NewServer(ServerConfig{ListenAddr: "127.0.0.1:0", Workers: 2}, selfSignedTLSConfig(t), d, zap.NewNop().Sugar())
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	for i := 0; i < srv.workers; i++ {
		require.Equal(0, srv.WorkerLoad(i))
	}

	conn := dialTestServer(t, srv.Addr().String())

	enc := rencode.NewEncoder()
	enc.AppendList(4)
	enc.AppendInt(1)
	enc.AppendStr("daemon.login")
	enc.AppendList(2)
	enc.AppendStr("user")
	enc.AppendStr("pw")
	enc.AppendDict(0)
	require.NoError(conn.WriteMessage(ctx, enc.Data()))

	_, err = conn.ReadMessage(ctx)
	require.NoError(err)

	// The reply came back, so one worker is still inside handleConn for
	// this open connection.
	load := 0
	for i := 0; i < srv.workers; i++ {
		load += srv.WorkerLoad(i)
	}
	require.Equal(1, load)
}
