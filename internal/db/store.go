// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/toeirei/lockbox/internal/model"

// Store defines the minimal table abstraction the vault needs: rows keyed
// by a unique name holding an opaque encrypted payload. Any engine that can
// satisfy it would do; the shipped implementation is SQLite via Bun.
type Store interface {
	// InsertCredential adds a new row and returns its ID. The caller is
	// responsible for the uniqueness check-then-insert; the UNIQUE
	// constraint on name is the backstop.
	InsertCredential(name string, payload []byte) (int64, error)

	// GetCredentialByName returns the row with the given name, or nil when
	// no row matches.
	GetCredentialByName(name string) (*model.Credential, error)

	// GetCredentialByID returns the row with the given ID, or nil when no
	// row matches.
	GetCredentialByID(id int64) (*model.Credential, error)

	// GetAllCredentials returns every row in backend iteration order.
	GetAllCredentials() ([]model.Credential, error)

	// UpdateCredential replaces the name and payload of an existing row.
	UpdateCredential(id int64, name string, payload []byte) error

	// DeleteCredential removes a row.
	DeleteCredential(id int64) error

	// CountCredentials returns the number of rows.
	CountCredentials() (int, error)

	// ReplacePayloads swaps the payload of every listed row inside a single
	// transaction. Used by password rotation: either every payload is
	// replaced or none is.
	ReplacePayloads(payloads map[int64][]byte) error

	// Close releases the underlying database handle.
	Close() error
}
