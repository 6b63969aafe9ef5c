package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"fieldserve-api/internal/auth"
)

func TestLookupKnownIdentity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery("SELECT id, identity, role, password_hash").
		WithArgs("tech@example.com").
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "identity", "role", "password_hash"}).
				AddRow("tech-1", "tech@example.com", "technician", "$2a$10$digest"),
		)

	credential, err := repo.Lookup(context.Background(), "tech@example.com")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if credential.Subject != "tech-1" || credential.Role != "technician" {
		t.Fatalf("unexpected credential: %+v", credential)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestLookupUnknownIdentity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery("SELECT id, identity, role, password_hash").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "identity", "role", "password_hash"}))

	_, err = repo.Lookup(context.Background(), "nobody@example.com")
	if !errors.Is(err, auth.ErrUnknownIdentity) {
		t.Fatalf("expected ErrUnknownIdentity, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestSeedAdminRequiresBothValues(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	repo := NewRepository(db)

	if err := repo.SeedAdmin(context.Background(), "", ""); err != nil {
		t.Fatalf("no-op seed should succeed, got %v", err)
	}
	if err := repo.SeedAdmin(context.Background(), "admin", ""); err == nil {
		t.Fatalf("expected error when only one seed value is set")
	}
}

func TestSeedAdminUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec("INSERT INTO technicians").
		WithArgs(sqlmock.AnyArg(), "dispatch@example.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SeedAdmin(context.Background(), "Dispatch@Example.com", "seed-password"); err != nil {
		t.Fatalf("SeedAdmin() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
