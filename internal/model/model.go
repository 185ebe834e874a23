// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package model contains the shared data structures for Lockbox. It keeps
// the persisted row shape and the in-memory plaintext shape as two distinct
// types so that nothing holding decrypted secrets ever touches the database
// layer by accident.
package model

import "fmt"

// Credential is the persisted form of a record. The payload is an opaque
// blob produced by the record cipher; the storage layer never inspects it.
type Credential struct {
	ID      int64
	Name    string
	Payload []byte
}

// DecryptedCredential is the read model handed to callers after a record
// has been decrypted. It never crosses the persistence boundary.
type DecryptedCredential struct {
	ID    int64
	Name  string
	Items map[string]string
}

// String returns the record name; item values are deliberately omitted.
func (c DecryptedCredential) String() string {
	return fmt.Sprintf("%s (%d items)", c.Name, len(c.Items))
}

// RecordRef identifies a stored credential either by its unique name or by
// its surrogate row ID. Callers construct one with ByName or ByID; the
// zero value is invalid.
type RecordRef struct {
	id   int64
	name string
	byID bool
}

// ByName references a credential by its unique name.
func ByName(name string) RecordRef { return RecordRef{name: name} }

// ByID references a credential by its database row ID.
func ByID(id int64) RecordRef { return RecordRef{id: id, byID: true} }

// IsByID reports whether the reference carries a row ID.
func (r RecordRef) IsByID() bool { return r.byID }

// ID returns the row ID for ByID references.
func (r RecordRef) ID() int64 { return r.id }

// Name returns the record name for ByName references.
func (r RecordRef) Name() string { return r.name }
