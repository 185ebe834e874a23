// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package vault implements the credential store: it orchestrates the record
// cipher over the persistence layer and owns the session master password.
// One Vault value is constructed per authenticated session and passed to
// every operation; there are no package-level singletons.
package vault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/flock"
	"github.com/toeirei/lockbox/internal/auth"
	"github.com/toeirei/lockbox/internal/crypto"
	"github.com/toeirei/lockbox/internal/db"
	"github.com/toeirei/lockbox/internal/logging"
	"github.com/toeirei/lockbox/internal/model"
	"github.com/toeirei/lockbox/internal/security"
)

// Vault is the handle for one authenticated session. It holds the open
// store, the auth gate, the session password, and the exclusive file lock.
type Vault struct {
	store    db.Store
	gate     *auth.Gate
	password security.Secret
	lock     *flock.Flock
}

// Open acquires the exclusive session lock and returns a vault handle bound
// to the given store, gate, and verified session password. It fails fast
// with ErrLocked when another process holds the lock.
func Open(store db.Store, gate *auth.Gate, password, lockPath string) (*Vault, error) {
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return &Vault{
		store:    store,
		gate:     gate,
		password: security.FromString(password),
		lock:     lock,
	}, nil
}

// Close releases the session lock and the persistence handle, and zeroes
// the session password.
func (v *Vault) Close() error {
	v.password.Zero()
	if err := v.lock.Unlock(); err != nil {
		logging.Errorf("vault: failed to release session lock: %v", err)
	}
	return v.store.Close()
}

// Count returns the number of stored credentials.
func (v *Vault) Count() (int, error) {
	return v.store.CountCredentials()
}

// Exists reports whether a credential with the given name is stored.
func (v *Vault) Exists(name string) (bool, error) {
	row, err := v.store.GetCredentialByName(name)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// Insert encrypts the items under the session password and persists a new
// credential. The uniqueness check happens before any encryption or write.
func (v *Vault) Insert(name string, items map[string]string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateItems(items); err != nil {
		return err
	}

	exists, err := v.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	payload, err := crypto.EncryptItems(v.password.Reveal(), items)
	if err != nil {
		return err
	}
	if _, err := v.store.InsertCredential(name, payload); err != nil {
		return err
	}
	logging.Debugf("vault: inserted credential %q", name)
	return nil
}

// Get loads, decrypts, and deserializes one credential. It returns nil when
// no record matches the name.
func (v *Vault) Get(name string) (*model.DecryptedCredential, error) {
	row, err := v.store.GetCredentialByName(name)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return v.decrypt(*row)
}

// GetAll decrypts every stored credential in backend iteration order.
func (v *Vault) GetAll() ([]model.DecryptedCredential, error) {
	rows, err := v.store.GetAllCredentials()
	if err != nil {
		return nil, err
	}
	out := make([]model.DecryptedCredential, 0, len(rows))
	for _, row := range rows {
		dec, err := v.decrypt(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *dec)
	}
	return out, nil
}

// Names returns the stored credential names without decrypting anything.
func (v *Vault) Names() ([]string, error) {
	rows, err := v.store.GetAllCredentials()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names, nil
}

// Lookup resolves a record reference and returns the decrypted credential.
// A failed lookup is ErrNotFound.
func (v *Vault) Lookup(ref model.RecordRef) (*model.DecryptedCredential, error) {
	row, err := v.resolve(ref)
	if err != nil {
		return nil, err
	}
	return v.decrypt(*row)
}

// Update re-encrypts newItems with a fresh salt and IV under the current
// session password and replaces the record's name and payload. The target
// must exist; a failed lookup is ErrNotFound.
func (v *Vault) Update(ref model.RecordRef, newName string, newItems map[string]string) error {
	if err := validateName(newName); err != nil {
		return err
	}
	if err := validateItems(newItems); err != nil {
		return err
	}

	row, err := v.resolve(ref)
	if err != nil {
		return err
	}

	if newName != row.Name {
		taken, err := v.Exists(newName)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateName, newName)
		}
	}

	payload, err := crypto.EncryptItems(v.password.Reveal(), newItems)
	if err != nil {
		return err
	}
	if err := v.store.UpdateCredential(row.ID, newName, payload); err != nil {
		return err
	}
	logging.Debugf("vault: updated credential %q", newName)
	return nil
}

// Delete removes the referenced record. A failed lookup is ErrNotFound.
func (v *Vault) Delete(ref model.RecordRef) error {
	row, err := v.resolve(ref)
	if err != nil {
		return err
	}
	if err := v.store.DeleteCredential(row.ID); err != nil {
		return err
	}
	logging.Debugf("vault: deleted credential %q", row.Name)
	return nil
}

// ChangePassword rotates the master password. Every record is decrypted
// under the current password and re-encrypted under the new one with a
// fresh salt and IV, entirely in memory; only after every record succeeded
// are the payloads applied in one transaction and the auth digest replaced.
// A failure mid-rotation leaves the vault exactly as it was.
func (v *Vault) ChangePassword(newPassword string) error {
	if newPassword == "" {
		return errors.New("new master password must not be empty")
	}

	rows, err := v.store.GetAllCredentials()
	if err != nil {
		return err
	}

	oldPayloads := make(map[int64][]byte, len(rows))
	newPayloads := make(map[int64][]byte, len(rows))
	for _, row := range rows {
		dec, err := v.decrypt(row)
		if err != nil {
			return fmt.Errorf("record %q: %w", row.Name, err)
		}
		payload, err := crypto.EncryptItems(newPassword, dec.Items)
		if err != nil {
			return fmt.Errorf("record %q: %w", row.Name, err)
		}
		oldPayloads[row.ID] = row.Payload
		newPayloads[row.ID] = payload
	}

	if len(newPayloads) > 0 {
		if err := v.store.ReplacePayloads(newPayloads); err != nil {
			return err
		}
	}

	if err := v.gate.CreatePassword(newPassword); err != nil {
		// The payloads are already committed; put them back so the stored
		// digest and the record encryption stay consistent.
		if len(oldPayloads) > 0 {
			if revertErr := v.store.ReplacePayloads(oldPayloads); revertErr != nil {
				return fmt.Errorf("failed to write new password digest: %w (revert also failed: %v)", err, revertErr)
			}
		}
		return fmt.Errorf("failed to write new password digest: %w", err)
	}

	v.password.Zero()
	v.password = security.FromString(newPassword)
	logging.Debugf("vault: master password rotated across %d records", len(newPayloads))
	return nil
}

// resolve turns a RecordRef into the persisted row, or ErrNotFound.
func (v *Vault) resolve(ref model.RecordRef) (*model.Credential, error) {
	var row *model.Credential
	var err error
	if ref.IsByID() {
		row, err = v.store.GetCredentialByID(ref.ID())
	} else {
		row, err = v.store.GetCredentialByName(ref.Name())
	}
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

func (v *Vault) decrypt(row model.Credential) (*model.DecryptedCredential, error) {
	p, err := crypto.Decrypt(v.password.Reveal(), row.Payload)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", row.Name, err)
	}
	items := p.Items
	if !p.IsItems() {
		// Raw string payloads surface as a single unnamed item.
		items = map[string]string{"": p.Value}
	}
	return &model.DecryptedCredential{ID: row.ID, Name: row.Name, Items: items}, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("credential name must not be empty")
	}
	return nil
}

func validateItems(items map[string]string) error {
	for key := range items {
		if strings.TrimSpace(key) == "" {
			return errors.New("item keys must not be empty")
		}
	}
	return nil
}
