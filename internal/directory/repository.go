// Package directory is the auth layer's edge onto the business CRUD schema:
// it maps a login identity to the stored credential for a technician or
// dispatcher account. The rest of the CRUD surface lives elsewhere.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fieldserve-api/internal/auth"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Lookup implements auth.CredentialSource.
func (r *Repository) Lookup(ctx context.Context, identity string) (auth.Credential, error) {
	var credential auth.Credential
	err := r.db.QueryRowContext(ctx, `
		SELECT id, identity, role, password_hash
		FROM technicians
		WHERE identity = $1
	`, identity).Scan(&credential.Subject, &credential.Identity, &credential.Role, &credential.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Credential{}, auth.ErrUnknownIdentity
		}
		return auth.Credential{}, fmt.Errorf("query credential by identity: %w", err)
	}

	return credential, nil
}

// SeedAdmin provisions the dispatcher account named by the environment,
// creating it on first boot and rotating its credential afterwards. Both
// values empty means no seeding; one without the other is a configuration
// error.
func (r *Repository) SeedAdmin(ctx context.Context, identity, plainPassword string) error {
	identity = strings.TrimSpace(strings.ToLower(identity))
	plainPassword = strings.TrimSpace(plainPassword)

	if identity == "" && plainPassword == "" {
		return nil
	}
	if identity == "" || plainPassword == "" {
		return fmt.Errorf("ADMIN_IDENTITY and ADMIN_PASSWORD are required together")
	}

	digest, err := auth.HashPassword(plainPassword)
	if err != nil {
		return err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate technician id: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO technicians (id, identity, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, 'dispatcher', $3, $4, $4)
		ON CONFLICT (identity)
		DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at
	`, id.String(), identity, digest, now)
	if err != nil {
		return fmt.Errorf("seed admin account: %w", err)
	}

	return nil
}
