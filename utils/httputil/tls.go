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
package httputil

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// Secret is a file path holding a PEM-encoded certificate, key, or
// passphrase. It's a struct rather than a bare string so the RPC acceptor's
// YAML config can name these fields explicitly.
type Secret struct {
	Path string
}

func (s Secret) read() ([]byte, error) {
	if s.Path == "" {
		return nil, nil
	}
	return os.ReadFile(s.Path)
}

// ClientConfig describes this daemon's outbound TLS client identity.
type ClientConfig struct {
	Disabled   bool
	Cert       Secret
	Key        Secret
	Passphrase Secret
}

// TLSConfig describes the TLS trust this daemon extends to peers: the CAs
// it trusts and, for its own outbound client, the certificate it presents.
type TLSConfig struct {
	Name string
	CAs  []Secret

	Client ClientConfig
}

// BuildClient builds a *tls.Config for outbound requests, or returns (nil,
// nil) if the client side is disabled.
func (c *TLSConfig) BuildClient() (*tls.Config, error) {
	if c.Client.Disabled {
		return nil, nil
	}

	pool, err := createCertPool(c.CAs)
	if err != nil {
		return nil, fmt.Errorf("build CA pool: %w", err)
	}

	cfg := &tls.Config{
		ServerName: c.Name,
		RootCAs:    pool,
	}

	if c.Client.Cert.Path == "" {
		return cfg, nil
	}

	certPEM, err := c.Client.Cert.read()
	if err != nil {
		return nil, fmt.Errorf("read client cert: %w", err)
	}
	keyPEM, err := parseKey(c.Client.Key.Path, c.Client.Passphrase.Path)
	if err != nil {
		return nil, fmt.Errorf("read client key: %w", err)
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse client keypair: %w", err)
	}
	cfg.Certificates = []tls.Certificate{cert}

	return cfg, nil
}

// parseKey reads the PEM-encoded private key at keyPath, decrypting it with
// the passphrase at passphrasePath if one is configured.
func parseKey(keyPath, passphrasePath string) ([]byte, error) {
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}
	if passphrasePath == "" {
		return keyPEM, nil
	}

	secret, err := os.ReadFile(passphrasePath)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in %s", keyPath)
	}
	decrypted, err := x509.DecryptPEMBlock(block, secret)
	if err != nil {
		return nil, fmt.Errorf("decrypt key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: decrypted}), nil
}

// createCertPool builds a cert pool from the given secrets. An empty list
// returns a nil pool, which makes crypto/tls fall back to the system trust
// store.
func createCertPool(cas []Secret) (*x509.CertPool, error) {
	if len(cas) == 0 {
		return nil, nil
	}
	pool := x509.NewCertPool()
	for _, ca := range cas {
		pem, err := ca.read()
		if err != nil {
			return nil, err
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("failed to parse CA cert %s", ca.Path)
		}
	}
	return pool, nil
}

// BuildServer loads a server identity from a single PEM file containing
// both the certificate and its private key, concatenated -- the shape the
// control protocol's daemon.ssl_keys file has always taken. No client
// certificate is required; crypto/tls has no SSLv2 mode and manages its own
// ephemeral DH/ECDH parameters per handshake, so neither of those legacy
// OpenSSL workarounds has a dial to turn here.
func BuildServer(pemFile string) (*tls.Config, error) {
	data, err := os.ReadFile(pemFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pemFile, err)
	}
	cert, err := tls.X509KeyPair(data, data)
	if err != nil {
		return nil, fmt.Errorf("parse cert+key from %s: %w", pemFile, err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.NoClientCert,
	}, nil
}
