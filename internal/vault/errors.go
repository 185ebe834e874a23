// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import "errors"

// ErrDuplicateName is returned when an insert or rename targets a name
// already used by a different record.
var ErrDuplicateName = errors.New("a credential with this name already exists")

// ErrNotFound is returned when an operation targets a record that does not
// exist. Update and delete report it explicitly rather than silently
// no-opping, so caller bugs are not masked.
var ErrNotFound = errors.New("no credential matches")

// ErrLocked is returned when another process already holds the session
// lock. Two simultaneous sessions against the same vault are unsupported.
var ErrLocked = errors.New("vault is locked by another session")
