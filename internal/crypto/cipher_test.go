// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{0x42}, SaltSize)
	k1 := DeriveKey("correct-horse", salt)
	k2 := DeriveKey("correct-horse", salt)
	if !bytes.Equal(k1, k2) {
		t.Fatalf("same password+salt produced different keys")
	}
	if len(k1) != KeySize {
		t.Fatalf("expected %d-byte key, got %d", KeySize, len(k1))
	}

	other := DeriveKey("correct-horse", bytes.Repeat([]byte{0x43}, SaltSize))
	if bytes.Equal(k1, other) {
		t.Fatalf("different salts produced the same key")
	}
}

func TestEncryptItemsRoundTrip(t *testing.T) {
	items := map[string]string{"user": "alice", "pass": "x1", "empty": ""}

	blob, err := EncryptItems("hunter2", items)
	if err != nil {
		t.Fatalf("EncryptItems failed: %v", err)
	}

	p, err := Decrypt("hunter2", blob)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !p.IsItems() {
		t.Fatalf("expected an item payload, got raw string %q", p.Value)
	}
	if len(p.Items) != len(items) {
		t.Fatalf("expected %d items, got %d", len(items), len(p.Items))
	}
	for k, v := range items {
		if p.Items[k] != v {
			t.Fatalf("item %q: expected %q, got %q", k, v, p.Items[k])
		}
	}
}

func TestEncryptStringRoundTrip(t *testing.T) {
	blob, err := EncryptString("hunter2", "just a note")
	if err != nil {
		t.Fatalf("EncryptString failed: %v", err)
	}
	p, err := Decrypt("hunter2", blob)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if p.IsItems() {
		t.Fatalf("expected a raw string payload")
	}
	if p.Value != "just a note" {
		t.Fatalf("expected %q, got %q", "just a note", p.Value)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	items := map[string]string{"user": "alice"}
	a, err := EncryptItems("pw", items)
	if err != nil {
		t.Fatalf("first encrypt failed: %v", err)
	}
	b, err := EncryptItems("pw", items)
	if err != nil {
		t.Fatalf("second encrypt failed: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two encryptions of the same plaintext produced identical blobs")
	}
	if bytes.Equal(a[:SaltSize], b[:SaltSize]) {
		t.Fatalf("two encryptions shared a salt")
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	blob, err := EncryptItems("right", map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := Decrypt("wrong", blob); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt for wrong password, got %v", err)
	}
}

func TestDecryptMalformedBlobs(t *testing.T) {
	cases := map[string][]byte{
		"empty":       {},
		"short":       bytes.Repeat([]byte{1}, SaltSize+ivSize),
		"unaligned":   bytes.Repeat([]byte{1}, SaltSize+ivSize+17),
		"zero_blocks": bytes.Repeat([]byte{1}, SaltSize+ivSize-1),
	}
	for name, blob := range cases {
		if _, err := Decrypt("pw", blob); !errors.Is(err, ErrDecrypt) {
			t.Fatalf("%s: expected ErrDecrypt, got %v", name, err)
		}
	}
}

func TestDecryptCorruptedCiphertext(t *testing.T) {
	blob, err := EncryptItems("pw", map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	// Flip a bit in the last ciphertext block to break the padding.
	blob[len(blob)-1] ^= 0xff
	if _, err := Decrypt("pw", blob); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt for corrupted blob, got %v", err)
	}
}

func TestPkcs7RoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 15, 16, 17, 31, 32} {
		data := bytes.Repeat([]byte{0xab}, size)
		padded := pkcs7Pad(data, 16)
		if len(padded)%16 != 0 {
			t.Fatalf("size %d: padded length %d not block aligned", size, len(padded))
		}
		out, err := pkcs7Unpad(padded, 16)
		if err != nil {
			t.Fatalf("size %d: unpad failed: %v", size, err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("size %d: round trip mismatch", size)
		}
	}
}
