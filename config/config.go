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

// Package config defines the daemon's top-level configuration, the struct
// utils/configutil.Load unmarshals a YAML file (and its extends chain)
// into.
package config

import (
	"go.uber.org/zap"

	"github.com/uber/torrentd/lib/tracing"
	"github.com/uber/torrentd/metrics"
	"github.com/uber/torrentd/rpc"
)

// Config is the torrentd daemon's complete configuration.
type Config struct {
	Verbose    bool       `yaml:"verbose"`
	ZapLogging zap.Config `yaml:"zap"`

	// RPC configures the TLS-terminating control-protocol acceptor (C4).
	RPC RPCConfig `yaml:"rpc"`

	// HTTPAddr is the address the read-only HTTP status surface binds.
	HTTPAddr string `yaml:"http_addr"`

	Metrics metrics.Config `yaml:"metrics"`
	Tracing tracing.Config `yaml:"tracing"`
}

// RPCConfig wraps rpc.ServerConfig with the one field that's a filesystem
// path rather than something the acceptor itself needs to know about: the
// combined cert+key PEM file the control protocol's TLS identity loads
// from.
type RPCConfig struct {
	rpc.ServerConfig `yaml:",inline"`

	// TLSPEMFile is a single PEM file containing both the server's
	// certificate and its private key, per the control protocol's TLS
	// contract (spec.md §6).
	TLSPEMFile string `yaml:"tls_pem_file"`
}
