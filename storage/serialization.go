// Copyright 2025 Poiesic Systems
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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/engram/core"
)

// FormatVersion prefixes the collection blob. Readers encountering any other
// value must treat the blob as incompatible.
const FormatVersion byte = 1

// MarshalCollection serializes a record collection with a leading format
// version byte.
func MarshalCollection(records []core.VectorizedRecord) []byte {
	buf := make([]byte, 1+core.CollectionMUS.Size(records))
	buf[0] = FormatVersion
	core.CollectionMUS.Marshal(records, buf[1:])
	return buf
}

// UnmarshalCollection deserializes a versioned collection blob.
// Returns ErrIncompatibleBlob when the version byte is unknown or the
// payload cannot be decoded.
func UnmarshalCollection(data []byte) ([]core.VectorizedRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty blob", ErrIncompatibleBlob)
	}
	if data[0] != FormatVersion {
		return nil, fmt.Errorf("%w: format version %d", ErrIncompatibleBlob, data[0])
	}
	records, _, err := core.CollectionMUS.Unmarshal(data[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIncompatibleBlob, err)
	}
	return records, nil
}

// MarshalMarker serializes a last-indexed timestamp as epoch milliseconds.
func MarshalMarker(at time.Time) []byte {
	ms := at.UnixMilli()
	buf := make([]byte, varint.Int64.Size(ms))
	varint.Int64.Marshal(ms, buf)
	return buf
}

// UnmarshalMarker deserializes a last-indexed timestamp.
func UnmarshalMarker(data []byte) (time.Time, error) {
	ms, _, err := varint.Int64.Unmarshal(data)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return time.UnixMilli(ms), nil
}
