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

// Package closers provides a deferred-close helper for the common case
// where a Close error can only be logged, not handled.
package closers

import (
	"io"

	"github.com/uber/torrentd/utils/log"
)

// Close closes c, logging any error. Safe to call with a nil c, so it can
// sit directly behind a defer without a prior nil check.
func Close(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Default().Errorf("Error closing %T: %s", c, err)
	}
}
