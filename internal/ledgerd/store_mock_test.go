package ledgerd

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// TestListUsers_QueryError tests a failing roster query
func TestListUsers_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	s := newStore(db)
	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnError(errors.New("disk I/O error"))

	if _, err := s.ListUsers(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestListUsers_ScanError tests row scanning error
func TestListUsers_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	s := newStore(db)
	rows := sqlmock.NewRows([]string{"id", "name", "total_points"}).
		AddRow("u1", "Ada", "not-a-number")
	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(rows)

	if _, err := s.ListUsers(context.Background()); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

// TestCreateUser_ExecError tests that non-constraint failures pass through
func TestCreateUser_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	s := newStore(db)
	mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("database is locked"))

	_, err = s.CreateUser(context.Background(), "Ada")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, ErrUserExists) {
		t.Error("a locked database is not a duplicate")
	}
}

// TestAwardPoints_RollsBackOnInsertError tests the claim transaction
func TestAwardPoints_RollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	s := newStore(db)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name FROM users").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Ada"))
	mock.ExpectExec("UPDATE users SET total_points").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO claims").WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	if _, err := s.AwardPoints(context.Background(), "u1", 5); err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestAwardPoints_BeginError tests a failure to open the transaction
func TestAwardPoints_BeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	s := newStore(db)
	mock.ExpectBegin().WillReturnError(errors.New("busy"))

	if _, err := s.AwardPoints(context.Background(), "u1", 5); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestCountClaims_Error tests a failing count
func TestCountClaims_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	s := newStore(db)
	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("no such table: claims"))

	if _, err := s.CountClaims(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}
