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

// Package httputil wraps net/http with the options this daemon's HTTP
// control surface needs repeatedly: an accepted-status-code allowlist,
// backoff-driven retry on 5xx/transport errors, optional client TLS, and a
// long-poll helper for handlers that answer 202 while work is pending.
package httputil

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/go-chi/chi"

	"github.com/uber/torrentd/core"
)

// StatusError is returned when a response's status code is not in the
// caller's accepted set.
type StatusError struct {
	Status int
	Header http.Header
	Body   []byte

	method string
	url    string
}

// NewStatusError builds a StatusError from resp, draining and closing its
// body so the caller doesn't have to.
func NewStatusError(resp *http.Response) StatusError {
	se := StatusError{Status: resp.StatusCode, Header: resp.Header}
	if resp.Request != nil {
		se.method = resp.Request.Method
		se.url = resp.Request.URL.String()
	}
	if resp.Body != nil {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		se.Body = b
	}
	return se
}

func (e StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.method, e.url, e.Status)
}

// IsNetworkError reports whether err represents a transport-level failure
// rather than a non-accepted HTTP status.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

type retryConfig struct {
	backoff backoff.BackOff
	codes   map[int]bool
}

// RetryOption configures a SendRetry policy.
type RetryOption func(*retryConfig)

// RetryBackoff sets the backoff schedule retries follow.
func RetryBackoff(b backoff.BackOff) RetryOption {
	return func(c *retryConfig) { c.backoff = b }
}

// RetryCodes marks additional status codes as retryable, on top of the
// always-retryable 5xx range.
func RetryCodes(codes ...int) RetryOption {
	return func(c *retryConfig) {
		for _, code := range codes {
			c.codes[code] = true
		}
	}
}

type sendOptions struct {
	transport     http.RoundTripper
	acceptedCodes map[int]bool
	retry         *retryConfig
	tlsConfig     *tls.Config
	noFallback    bool
}

// SendOption configures a single Send/Get call.
type SendOption func(*sendOptions)

// SendTransport overrides the http.RoundTripper used for the request.
func SendTransport(t http.RoundTripper) SendOption {
	return func(o *sendOptions) { o.transport = t }
}

// SendAcceptedCodes adds codes to the set of statuses treated as success.
// 2xx is always accepted.
func SendAcceptedCodes(codes ...int) SendOption {
	return func(o *sendOptions) {
		for _, c := range codes {
			o.acceptedCodes[c] = true
		}
	}
}

// SendRetry enables retrying the request per the given policy.
func SendRetry(opts ...RetryOption) SendOption {
	return func(o *sendOptions) {
		rc := &retryConfig{backoff: backoff.NewConstantBackOff(0), codes: make(map[int]bool)}
		for _, opt := range opts {
			opt(rc)
		}
		o.retry = rc
	}
}

// SendTLS sets the TLS client config used for https requests.
func SendTLS(c *tls.Config) SendOption {
	return func(o *sendOptions) { o.tlsConfig = c }
}

// DisableHTTPFallback disables falling back to a plain client on TLS
// handshake failure.
func DisableHTTPFallback() SendOption {
	return func(o *sendOptions) { o.noFallback = true }
}

func newSendOptions(opts []SendOption) *sendOptions {
	o := &sendOptions{acceptedCodes: make(map[int]bool)}
	for c := 200; c < 300; c++ {
		o.acceptedCodes[c] = true
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *sendOptions) client() *http.Client {
	if o.transport != nil {
		return &http.Client{Transport: o.transport}
	}
	if o.tlsConfig != nil {
		return &http.Client{Transport: &http.Transport{TLSClientConfig: o.tlsConfig}}
	}
	return http.DefaultClient
}

func (o *sendOptions) retryable(err error, resp *http.Response) bool {
	if o.retry == nil {
		return false
	}
	if err != nil {
		return true
	}
	return resp.StatusCode >= 500 || o.retry.codes[resp.StatusCode]
}

// Get issues a GET request to url.
func Get(url string, opts ...SendOption) (*http.Response, error) {
	return send(http.MethodGet, url, opts...)
}

func send(method, reqURL string, opts ...SendOption) (*http.Response, error) {
	o := newSendOptions(opts)
	client := o.client()

	for {
		req, err := http.NewRequest(method, reqURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err == nil && o.acceptedCodes[resp.StatusCode] {
			return resp, nil
		}

		if !o.retryable(err, resp) {
			if err != nil {
				return nil, err
			}
			return nil, NewStatusError(resp)
		}

		wait := o.retry.backoff.NextBackOff()
		if wait == backoff.Stop {
			if err != nil {
				return nil, err
			}
			return nil, NewStatusError(resp)
		}
		time.Sleep(wait)
	}
}

// PollAccepted repeatedly GETs url, treating a 202 response as "still
// pending" and retrying per b until a different status is returned or b is
// exhausted.
func PollAccepted(reqURL string, b backoff.BackOff, opts ...SendOption) (*http.Response, error) {
	o := newSendOptions(opts)
	client := o.client()

	for {
		req, err := http.NewRequest(http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusAccepted {
			wait := b.NextBackOff()
			if wait == backoff.Stop {
				return nil, fmt.Errorf("polling %s: still pending after backoff exhausted", reqURL)
			}
			time.Sleep(wait)
			continue
		}

		if o.acceptedCodes[resp.StatusCode] {
			return resp, nil
		}
		return nil, NewStatusError(resp)
	}
}

// GetQueryArg returns the named query string argument, or def if unset.
func GetQueryArg(r *http.Request, arg, def string) string {
	v := r.URL.Query().Get(arg)
	if v == "" {
		return def
	}
	return v
}

// ParseParam reads and unescapes a chi route parameter.
func ParseParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if v == "" {
		return "", fmt.Errorf("param %q not set", key)
	}
	decoded, err := url.QueryUnescape(v)
	if err != nil {
		return "", fmt.Errorf("unescape param %q: %w", key, err)
	}
	return decoded, nil
}

// ParseInfoHash reads a chi route parameter and parses it as an info hash.
func ParseInfoHash(r *http.Request, key string) (core.InfoHash, error) {
	s, err := ParseParam(r, key)
	if err != nil {
		return core.InfoHash{}, err
	}
	return core.NewInfoHashFromHex(s)
}
