// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package auth gates access to the vault with the master password. The
// stored artifact is a bcrypt digest, which is deliberately a different
// primitive from the record cipher's key derivation: the digest must never
// be reversible to the password, while the encryption key must be
// re-derivable from it every session.
package auth

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// ErrAuthentication is returned when the candidate password does not match
// the stored digest. Fatal for the current invocation; the user re-runs.
var ErrAuthentication = errors.New("master password verification failed")

// ErrConfiguration is returned when the password file exists but cannot be
// read or written. Not user-recoverable without fixing the environment.
var ErrConfiguration = errors.New("password file is not usable")

// Status describes whether a vault has a master password yet.
type Status int

const (
	// Uninitialized means no password file exists; first run.
	Uninitialized Status = iota
	// Initialized means a master password has been created.
	Initialized
)

// Prompter supplies passwords from the user. The CLI owns the actual
// terminal interaction; the gate only consumes the results.
type Prompter interface {
	// NewPassword prompts for a new master password, confirmed twice.
	NewPassword() (string, error)
	// Password prompts for the existing master password.
	Password() (string, error)
}

// Gate owns the password file for one vault.
type Gate struct {
	path string
}

// NewGate returns a gate backed by the password file at path.
func NewGate(path string) *Gate {
	return &Gate{path: path}
}

// Status reports whether the password file exists.
func (g *Gate) Status() (Status, error) {
	if _, err := os.Stat(g.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Uninitialized, nil
		}
		return Uninitialized, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return Initialized, nil
}

// CreatePassword hashes the password with bcrypt and writes the digest,
// replacing any previous one. Confirmation matching is the prompter's job;
// the gate only rejects the empty password.
func (g *Gate) CreatePassword(password string) error {
	if password == "" {
		return errors.New("master password must not be empty")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash master password: %w", err)
	}
	if err := os.WriteFile(g.path, digest, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

// VerifyPassword compares the candidate against the stored digest. A
// mismatch returns (false, nil); a missing or unreadable file is a
// configuration error, not a failed verification.
func (g *Gate) VerifyPassword(candidate string) (bool, error) {
	digest, err := os.ReadFile(g.path)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := bcrypt.CompareHashAndPassword(digest, []byte(candidate)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return true, nil
}

// Authenticate is the once-per-session entry point. On first run it creates
// the master password via the prompter; otherwise it verifies a candidate.
// The caller decides what to do with ErrAuthentication; the gate never
// terminates the process.
func (g *Gate) Authenticate(p Prompter) (string, error) {
	status, err := g.Status()
	if err != nil {
		return "", err
	}

	if status == Uninitialized {
		password, err := p.NewPassword()
		if err != nil {
			return "", err
		}
		if err := g.CreatePassword(password); err != nil {
			return "", err
		}
		return password, nil
	}

	candidate, err := p.Password()
	if err != nil {
		return "", err
	}
	ok, err := g.VerifyPassword(candidate)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrAuthentication
	}
	return candidate, nil
}
