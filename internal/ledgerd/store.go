package ledgerd

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/claimboard/internal/errors"
	"github.com/abrezinsky/claimboard/internal/models"
)

// ErrUserNotFound is returned when a claim names an unknown user
var ErrUserNotFound = errors.NotFound("User not found")

// ErrUserExists is returned when a name is already taken, ignoring case
var ErrUserExists = errors.Conflict("User already exists")

// Store persists participants and claims in SQLite
type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// Open opens (creating if needed) the database at dbPath and migrates it
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	// SQLite works best with a single connection; it also keeps :memory:
	// databases alive across calls
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := newStore(db)
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newStore(db *sql.DB) *Store {
	return &Store{
		db:  db,
		now: time.Now,
		newID: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
	}
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE COLLATE NOCASE,
			total_points INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS claims (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			user_name TEXT NOT NULL,
			points_awarded INTEGER NOT NULL,
			claimed_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_rank ON users(total_points DESC, created_at ASC)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_claimed_at ON claims(claimed_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// ListUsers returns every participant ranked by points, ties going to the
// earlier registration. Ranks are 1-based positions.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, total_points
		FROM users
		ORDER BY total_points DESC, created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.TotalPoints); err != nil {
			return nil, err
		}
		u.Rank = len(users) + 1
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser registers a participant with zero points
func (s *Store) CreateUser(ctx context.Context, name string) (string, error) {
	id := s.newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, total_points, created_at) VALUES (?, ?, 0, ?)
	`, id, name, s.now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrUserExists
		}
		return "", err
	}
	return id, nil
}

// AwardPoints adds points to a user and records the claim in one
// transaction. It returns the stored claim.
func (s *Store) AwardPoints(ctx context.Context, userID string, points int) (models.HistoryRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.HistoryRecord{}, err
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, userID).Scan(&name)
	if err == sql.ErrNoRows {
		return models.HistoryRecord{}, ErrUserNotFound
	}
	if err != nil {
		return models.HistoryRecord{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET total_points = total_points + ? WHERE id = ?
	`, points, userID); err != nil {
		return models.HistoryRecord{}, err
	}

	record := models.HistoryRecord{
		ID:            s.newID(),
		UserName:      name,
		PointsAwarded: points,
		ClaimedAt:     s.now().UTC(),
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO claims (id, user_id, user_name, points_awarded, claimed_at) VALUES (?, ?, ?, ?, ?)
	`, record.ID, userID, name, points, record.ClaimedAt); err != nil {
		return models.HistoryRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.HistoryRecord{}, err
	}
	return record, nil
}

// CountClaims returns the number of recorded claims
func (s *Store) CountClaims(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM claims`).Scan(&n)
	return n, err
}

// ListClaims returns up to limit claims, newest first, skipping offset
func (s *Store) ListClaims(ctx context.Context, offset, limit int) ([]models.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_name, points_awarded, claimed_at
		FROM claims
		ORDER BY claimed_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.HistoryRecord{}
	for rows.Next() {
		var r models.HistoryRecord
		if err := rows.Scan(&r.ID, &r.UserName, &r.PointsAwarded, &r.ClaimedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
