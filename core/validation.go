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


package core

import "fmt"

// ValidateRecord validates a VectorizedRecord according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - Content must not be empty
//   - Kind must be one of the known kinds
//   - Metadata must carry a non-empty ownerId
//
// NOT validated (populated by the indexing pipeline):
//   - Embedding (can be empty until the record is embedded)
//   - CreatedAtMs (0 is valid before the record is stored)
func ValidateRecord(record *VectorizedRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyID)
	}

	if record.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyContent)
	}

	if !record.Kind.Valid() {
		return fmt.Errorf("%w: %w %q", ErrInvalidRecord, ErrUnknownKind, record.Kind)
	}

	if record.Owner() == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingOwner)
	}

	return nil
}
