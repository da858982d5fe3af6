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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a VectorizedRecord failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyID indicates the record Id field is empty.
	ErrEmptyID = errors.New("record id cannot be empty")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrUnknownKind indicates an unrecognized record kind.
	ErrUnknownKind = errors.New("unknown record kind")

	// ErrMissingOwner indicates the ownerId metadata entry is absent.
	ErrMissingOwner = errors.New("record owner cannot be empty")
)
