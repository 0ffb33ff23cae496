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

import "fmt"

// SyntaxError reports a malformed message at a specific byte offset. Every
// decode failure is recoverable: the caller drops the message and closes the
// connection.
type SyntaxError struct {
	Offset int
	What   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("rencode: %s at offset %d", e.What, e.Offset)
}

func newSyntaxError(offset int, what string) error {
	return &SyntaxError{Offset: offset, What: what}
}

// ErrTokenCapacity is returned when a message decodes to more tokens than
// the caller-supplied token array can hold.
var ErrTokenCapacity = fmt.Errorf("rencode: token array capacity exceeded")

// ErrDepthExceeded is returned when a message nests containers deeper than
// maxDepth. A well-formed RPC envelope never approaches this limit; it
// exists to bound stack use against a hostile peer.
var ErrDepthExceeded = fmt.Errorf("rencode: maximum nesting depth exceeded")

// maxDepth bounds container recursion during decode.
const maxDepth = 64
