// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// kdfIterations is the fixed PBKDF2 iteration count. Changing it breaks
	// decryption of existing payloads, so it is part of the on-disk format.
	kdfIterations = 100000

	// KeySize is the derived key length: 32 bytes selects AES-256.
	KeySize = 32

	// SaltSize is the per-encryption random salt length.
	SaltSize = 16
)

// DeriveKey stretches the master password into a symmetric key using
// PBKDF2-HMAC-SHA256. The same password and salt always yield the same key;
// every encryption uses a fresh salt so no two payloads share a key.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, kdfIterations, KeySize, sha256.New)
}
