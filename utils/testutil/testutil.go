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

// Package testutil holds small fixtures shared by this module's tests: a
// LIFO cleanup stack and helpers for standing up throwaway files and
// servers.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
)

// Cleanup is a LIFO stack of teardown functions. The zero value is ready to
// use.
type Cleanup struct {
	fns []func()
}

// Add pushes f onto the stack.
func (c *Cleanup) Add(f func()) {
	c.fns = append(c.fns, f)
}

// Run runs every registered function in LIFO order.
func (c *Cleanup) Run() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
}

// Recover runs the stack if a deferred setup step panics partway through,
// so a test helper that panics on the Nth step still tears down steps
// 1..N-1. No-op if the caller goes on to call Run itself.
func (c *Cleanup) Recover() {
	if r := recover(); r != nil {
		c.Run()
		panic(r)
	}
}

// TempFile writes data to a new temporary file and returns its path along
// with a cleanup function that removes it.
func TempFile(data []byte) (path string, cleanup func()) {
	f, err := os.CreateTemp("", "torrentd-test")
	if err != nil {
		panic(err)
	}
	if _, err := f.Write(data); err != nil {
		panic(err)
	}
	if err := f.Close(); err != nil {
		panic(err)
	}
	return f.Name(), func() { os.Remove(f.Name()) }
}

// StartServer starts an httptest server for h and returns its address and a
// stop function.
func StartServer(h http.Handler) (addr string, stop func()) {
	s := httptest.NewServer(h)
	return s.Listener.Addr().String(), s.Close
}
