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


// Package storage provides the storage layer for engram.
//
// The layer has two levels. BlobStore is the minimal key-value surface a
// backend must offer (BadgerDB in storage/badger; an in-memory variant for
// tests). VectorStore sits on top and manages the engine's record collection
// as a single versioned blob plus a last-indexed marker, enforcing the
// capacity cap and owner scoping.
//
// # Storage footprint
//
// The engine owns exactly two keys in the backing store: the serialized
// record collection and the last-indexed timestamp. At the default capacity
// of 1000 records, rewriting the whole collection on change is cheap and
// keeps the on-disk format portable across backends.
//
// # Usage
//
// Open a persistent store:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	store, err := storage.NewVectorStore(backend)
//
// Use in tests with in-memory storage:
//
//	backend, err := badger.OpenBackend("", true)
//
// # Thread Safety
//
// VectorStore is safe for concurrent use. Every read-modify-write cycle on
// the collection runs under one mutex, so concurrent upserts never
// interleave on the shared blob.
//
// # Context Support
//
// All VectorStore methods accept context.Context for cancellation. Pass
// context.Background() for operations without specific timeout requirements.
package storage
