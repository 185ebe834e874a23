// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/toeirei/lockbox/internal/auth"
	"github.com/toeirei/lockbox/internal/crypto"
	"github.com/toeirei/lockbox/internal/db"
	"github.com/toeirei/lockbox/internal/model"
)

// newTestVault opens a vault over an in-memory store with a fresh gate.
func newTestVault(t *testing.T, password string) *Vault {
	t.Helper()
	dir := t.TempDir()

	gate := auth.NewGate(filepath.Join(dir, "lockbox.key"))
	if err := gate.CreatePassword(password); err != nil {
		t.Fatalf("failed to create master password: %v", err)
	}

	store, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	v, err := Open(store, gate, password, filepath.Join(dir, "lockbox.lock"))
	if err != nil {
		t.Fatalf("failed to open vault: %v", err)
	}
	t.Cleanup(func() { _ = v.Close() })
	return v
}

func TestInsertAndGet(t *testing.T) {
	v := newTestVault(t, "correct-horse")

	items := map[string]string{"user": "alice", "pass": "x1"}
	if err := v.Insert("GitHub", items); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := v.Get("GitHub")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatalf("expected a credential, got nil")
	}
	if got.Items["user"] != "alice" || got.Items["pass"] != "x1" {
		t.Fatalf("unexpected items: %v", got.Items)
	}

	// Idempotent read: a second Get returns the same items.
	again, err := v.Get("GitHub")
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if len(again.Items) != len(got.Items) {
		t.Fatalf("repeated read changed the items: %v vs %v", got.Items, again.Items)
	}
}

func TestInsertDuplicateName(t *testing.T) {
	v := newTestVault(t, "pw")

	if err := v.Insert("GitHub", map[string]string{"user": "alice"}); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	err := v.Insert("GitHub", map[string]string{"user": "bob"})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	n, err := v.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected count to stay at 1, got %d", n)
	}
}

func TestInsertValidation(t *testing.T) {
	v := newTestVault(t, "pw")

	if err := v.Insert("  ", map[string]string{"k": "v"}); err == nil {
		t.Fatalf("expected an error for a blank name")
	}
	if err := v.Insert("Site", map[string]string{"": "v"}); err == nil {
		t.Fatalf("expected an error for an empty item key")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	v := newTestVault(t, "pw")

	got, err := v.Get("Nothing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for a missing record, got %+v", got)
	}
}

func TestExistsAndDelete(t *testing.T) {
	v := newTestVault(t, "pw")

	if err := v.Insert("GitHub", map[string]string{"user": "alice"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	ok, err := v.Exists("GitHub")
	if err != nil || !ok {
		t.Fatalf("expected GitHub to exist: ok=%v err=%v", ok, err)
	}

	if err := v.Delete(model.ByName("GitHub")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	ok, err = v.Exists("GitHub")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Fatalf("GitHub still exists after delete")
	}
	got, err := v.Get("GitHub")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("Get returned a deleted record: %+v", got)
	}

	if err := v.Delete(model.ByName("GitHub")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for double delete, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	v := newTestVault(t, "pw")

	if err := v.Insert("GitHub", map[string]string{"user": "alice"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := v.Update(model.ByName("GitHub"), "GitLab", map[string]string{"user": "bob", "token": "t"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if got, _ := v.Get("GitHub"); got != nil {
		t.Fatalf("old name still resolves after rename")
	}
	got, err := v.Get("GitLab")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Items["user"] != "bob" || got.Items["token"] != "t" {
		t.Fatalf("unexpected updated record: %+v", got)
	}

	if err := v.Update(model.ByName("Missing"), "X", map[string]string{"k": "v"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing target, got %v", err)
	}
}

func TestUpdateRenameToTakenName(t *testing.T) {
	v := newTestVault(t, "pw")

	if err := v.Insert("One", map[string]string{"k": "1"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := v.Insert("Two", map[string]string{"k": "2"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := v.Update(model.ByName("One"), "Two", map[string]string{"k": "x"})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	// Keeping the same name is not a conflict.
	if err := v.Update(model.ByName("One"), "One", map[string]string{"k": "9"}); err != nil {
		t.Fatalf("same-name update failed: %v", err)
	}
}

func TestUpdateByID(t *testing.T) {
	v := newTestVault(t, "pw")

	if err := v.Insert("GitHub", map[string]string{"user": "alice"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	got, err := v.Get("GitHub")
	if err != nil || got == nil {
		t.Fatalf("Get failed: %v", err)
	}

	if err := v.Update(model.ByID(got.ID), "GitHub", map[string]string{"user": "carol"}); err != nil {
		t.Fatalf("Update by ID failed: %v", err)
	}
	got, _ = v.Get("GitHub")
	if got.Items["user"] != "carol" {
		t.Fatalf("update by ID not applied: %v", got.Items)
	}
}

func TestChangePassword(t *testing.T) {
	v := newTestVault(t, "old-pw")

	records := map[string]map[string]string{
		"GitHub": {"user": "alice", "pass": "x1"},
		"Bank":   {"iban": "DE02"},
		"Mail":   {"user": "a@example.com", "pass": "p"},
	}
	for name, items := range records {
		if err := v.Insert(name, items); err != nil {
			t.Fatalf("Insert %s failed: %v", name, err)
		}
	}

	if err := v.ChangePassword("new-pw"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	// Every record is retrievable through the rotated session.
	for name, items := range records {
		got, err := v.Get(name)
		if err != nil {
			t.Fatalf("Get %s after rotation failed: %v", name, err)
		}
		for k, want := range items {
			if got.Items[k] != want {
				t.Fatalf("%s item %q: expected %q, got %q", name, k, want, got.Items[k])
			}
		}
	}

	// The stored payloads decrypt only under the new password.
	rows, err := v.store.GetAllCredentials()
	if err != nil {
		t.Fatalf("GetAllCredentials failed: %v", err)
	}
	for _, row := range rows {
		if _, err := crypto.Decrypt("old-pw", row.Payload); !errors.Is(err, crypto.ErrDecrypt) {
			t.Fatalf("record %q still decrypts under the old password", row.Name)
		}
		if _, err := crypto.Decrypt("new-pw", row.Payload); err != nil {
			t.Fatalf("record %q does not decrypt under the new password: %v", row.Name, err)
		}
	}

	// The auth digest was rotated with the payloads.
	ok, err := v.gate.VerifyPassword("new-pw")
	if err != nil || !ok {
		t.Fatalf("new password does not verify: ok=%v err=%v", ok, err)
	}
	ok, err = v.gate.VerifyPassword("old-pw")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if ok {
		t.Fatalf("old password still verifies after rotation")
	}
}

func TestChangePasswordRevertsWhenDigestWriteFails(t *testing.T) {
	v := newTestVault(t, "old-pw")

	if err := v.Insert("GitHub", map[string]string{"user": "alice"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Point the gate at an unwritable location so the digest write fails
	// after the payloads have been committed.
	v.gate = auth.NewGate(filepath.Join(t.TempDir(), "missing", "sub", "lockbox.key"))

	if err := v.ChangePassword("new-pw"); err == nil {
		t.Fatalf("expected ChangePassword to fail")
	}

	// The payloads must have been reverted to the old password.
	rows, err := v.store.GetAllCredentials()
	if err != nil {
		t.Fatalf("GetAllCredentials failed: %v", err)
	}
	for _, row := range rows {
		if _, err := crypto.Decrypt("old-pw", row.Payload); err != nil {
			t.Fatalf("record %q no longer decrypts under the old password: %v", row.Name, err)
		}
	}
}

func TestSessionLockIsExclusive(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "lockbox.lock")

	gate := auth.NewGate(filepath.Join(dir, "lockbox.key"))
	if err := gate.CreatePassword("pw"); err != nil {
		t.Fatalf("CreatePassword failed: %v", err)
	}

	store1, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open store failed: %v", err)
	}
	v1, err := Open(store1, gate, "pw", lockPath)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	store2, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open store failed: %v", err)
	}
	defer func() { _ = store2.Close() }()
	if _, err := Open(store2, gate, "pw", lockPath); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked for a second session, got %v", err)
	}

	if err := v1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	store3, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open store failed: %v", err)
	}
	v3, err := Open(store3, gate, "pw", lockPath)
	if err != nil {
		t.Fatalf("reopen after Close failed: %v", err)
	}
	_ = v3.Close()
}
