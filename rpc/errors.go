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

import "github.com/uber/torrentd/rencode"

// Response envelope tags, per the control protocol's [tag, req_id, payload]
// shape.
const (
	tagResponse = 1
	tagError    = 2
	tagEvent    = 3
)

// encodeError builds an error response envelope: [2, req_id, [name, "", ""]].
// The trailing two payload elements (args, trace) are always empty strings;
// nothing in this daemon ever populates them.
func encodeError(reqID int, name string) []byte {
	enc := rencode.NewEncoder()
	enc.AppendList(3)
	enc.AppendInt(tagError)
	enc.AppendInt(int64(reqID))
	enc.AppendList(3)
	enc.AppendStr(name)
	enc.AppendStr("")
	enc.AppendStr("")
	return enc.Data()
}
