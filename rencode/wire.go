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

// Wire type tags. Every byte value 0-255 is either in one of the
// fixed-value ranges below, one of the singleton tags, or an ASCII digit
// starting a string length prefix -- except 45-47 and 58, which are not
// assigned; the decoder rejects those as unrecognized type tags.
const (
	// intPosFixedStart..+intPosFixedCount-1 encode small non-negative
	// integers directly in the tag byte.
	intPosFixedStart = 0
	intPosFixedCount = 44

	// ASCII '0'-'9' (48-57) are reserved for the decimal length prefix of
	// a generic (>=64 byte) string; they never appear as a standalone tag.

	chrFloat64 = 44

	chrList = 59
	chrDict = 60
	chrInt  = 61 // generic signed integer, ASCII decimal, terminated by chrTerm
	chrInt1 = 62 // 1-byte signed integer follows
	chrInt2 = 63 // 2-byte big-endian signed integer follows
	chrInt4 = 64 // 4-byte big-endian signed integer follows
	chrInt8 = 65 // 8-byte big-endian signed integer follows

	chrFloat32 = 66

	chrTrue  = 67
	chrFalse = 68
	chrNone  = 69

	// intNegFixedStart..+intNegFixedCount-1 encode small negative integers
	// (-1 down to -intNegFixedCount) directly in the tag byte.
	intNegFixedStart = 70
	intNegFixedCount = 32

	// dictFixedStart..+dictFixedCount-1 encode a dict of N key/value pairs
	// directly in the tag byte, with no terminator.
	dictFixedStart = 102
	dictFixedCount = 25

	chrTerm = 127

	// strFixedStart..+strFixedCount-1 encode a string of N raw bytes
	// directly in the tag byte, with no length prefix.
	strFixedStart = 128
	strFixedCount = 64

	// listFixedStart..+listFixedCount-1 encode a list of N items directly
	// in the tag byte, with no terminator.
	listFixedStart = 192
	listFixedCount = 64
)
