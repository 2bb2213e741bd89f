package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// IdentityValue is one persisted identity entry.
type IdentityValue struct {
	bun.BaseModel `bun:"table:identity_values"`

	Name  string `bun:"name,pk"`
	Value string `bun:"value,notnull"`
}

// IdentityStore persists identity values in Postgres, for deployments
// where the hosting side of the client runs on a server with a database
// already at hand.
type IdentityStore struct {
	db *bun.DB
}

func NewIdentityStore(db *bun.DB) *IdentityStore {
	return &IdentityStore{db: db}
}

func (s *IdentityStore) Load(ctx context.Context, name string) (string, bool, error) {
	var entry IdentityValue
	err := s.db.NewSelect().Model(&entry).Where("name = ?", name).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *IdentityStore) Store(ctx context.Context, name, value string) error {
	if value == "" {
		_, err := s.db.NewDelete().Model((*IdentityValue)(nil)).Where("name = ?", name).Exec(ctx)
		return err
	}
	entry := &IdentityValue{Name: name, Value: value}
	_, err := s.db.NewInsert().
		Model(entry).
		On("CONFLICT (name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return err
}
