// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/toeirei/lockbox/internal/model"
	"github.com/uptrace/bun"
)

// CredentialModel maps the `credentials` table for Bun queries.
type CredentialModel struct {
	bun.BaseModel `bun:"table:credentials"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Name          string `bun:"name"`
	Payload       []byte `bun:"payload"`
}

// SqliteStore is the SQLite-backed implementation of Store.
type SqliteStore struct {
	bun *bun.DB
}

var _ Store = (*SqliteStore)(nil)

func credentialModelToModel(m CredentialModel) model.Credential {
	return model.Credential{ID: m.ID, Name: m.Name, Payload: m.Payload}
}

// InsertCredential adds a new row and returns its assigned ID.
func (s *SqliteStore) InsertCredential(name string, payload []byte) (int64, error) {
	ctx := context.Background()

	row := &CredentialModel{Name: name, Payload: payload}
	if _, err := s.bun.NewInsert().Model(row).Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to insert credential: %w", err)
	}
	return row.ID, nil
}

// GetCredentialByName returns the row with the given name, or nil.
func (s *SqliteStore) GetCredentialByName(name string) (*model.Credential, error) {
	ctx := context.Background()

	var row CredentialModel
	err := s.bun.NewSelect().Model(&row).Where("name = ?", name).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m := credentialModelToModel(row)
	return &m, nil
}

// GetCredentialByID returns the row with the given ID, or nil.
func (s *SqliteStore) GetCredentialByID(id int64) (*model.Credential, error) {
	ctx := context.Background()

	var row CredentialModel
	err := s.bun.NewSelect().Model(&row).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m := credentialModelToModel(row)
	return &m, nil
}

// GetAllCredentials returns every row in backend iteration order.
func (s *SqliteStore) GetAllCredentials() ([]model.Credential, error) {
	ctx := context.Background()

	var rows []CredentialModel
	if err := s.bun.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Credential, 0, len(rows))
	for _, r := range rows {
		out = append(out, credentialModelToModel(r))
	}
	return out, nil
}

// UpdateCredential replaces the name and payload of an existing row.
func (s *SqliteStore) UpdateCredential(id int64, name string, payload []byte) error {
	ctx := context.Background()

	res, err := s.bun.NewUpdate().
		Model((*CredentialModel)(nil)).
		Set("name = ?", name).
		Set("payload = ?", payload).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteCredential removes a row.
func (s *SqliteStore) DeleteCredential(id int64) error {
	ctx := context.Background()

	res, err := s.bun.NewDelete().
		Model((*CredentialModel)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountCredentials returns the number of rows.
func (s *SqliteStore) CountCredentials() (int, error) {
	ctx := context.Background()
	return s.bun.NewSelect().Model((*CredentialModel)(nil)).Count(ctx)
}

// ReplacePayloads swaps the payload of every listed row inside one
// transaction. If any update fails, the whole batch is rolled back.
func (s *SqliteStore) ReplacePayloads(payloads map[int64][]byte) error {
	ctx := context.Background()

	return s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for id, payload := range payloads {
			res, err := tx.NewUpdate().
				Model((*CredentialModel)(nil)).
				Set("payload = ?", payload).
				Where("id = ?", id).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to replace payload for row %d: %w", id, err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return fmt.Errorf("failed to replace payload for row %d: %w", id, sql.ErrNoRows)
			}
		}
		return nil
	})
}

// Close releases the underlying database handle.
func (s *SqliteStore) Close() error {
	return s.bun.Close()
}
