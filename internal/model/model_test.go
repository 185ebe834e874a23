// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"strings"
	"testing"
)

func TestDecryptedCredentialStringOmitsValues(t *testing.T) {
	c := DecryptedCredential{
		Name:  "GitHub",
		Items: map[string]string{"user": "alice", "pass": "s3cret"},
	}

	got := c.String()
	if got != "GitHub (2 items)" {
		t.Errorf("unexpected String(): %q", got)
	}
	if strings.Contains(got, "s3cret") || strings.Contains(got, "alice") {
		t.Errorf("String() leaked item values: %q", got)
	}
}

func TestRecordRefConstructors(t *testing.T) {
	byName := ByName("GitHub")
	if byName.IsByID() {
		t.Errorf("ByName reference reports IsByID")
	}
	if byName.Name() != "GitHub" {
		t.Errorf("unexpected name: %q", byName.Name())
	}

	byID := ByID(42)
	if !byID.IsByID() {
		t.Errorf("ByID reference does not report IsByID")
	}
	if byID.ID() != 42 {
		t.Errorf("unexpected id: %d", byID.ID())
	}
}
