package userstorage

import (
	"context"
	"database/sql"
	"embed"

	"github.com/cockroachdb/errors"
	"github.com/pressly/goose/v3"
	"github.com/stemremover/stem-remover-be/src/server/internal/user/entity"
	"github.com/stemremover/stem-remover-be/src/shared/lib/errors/mark"
	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open connects to the users database and applies migrations.
func Open(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to open sqlite db")
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := sqlDB.Exec(pragma); execErr != nil {
			_ = sqlDB.Close()
			return nil, errors.Wrapf(execErr, "Failed to apply pragma %q", pragma)
		}
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "Failed to set goose dialect")
	}

	if err := goose.Up(sqlDB, "migrations"); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "Failed to apply migrations")
	}

	return sqlDB, nil
}

type DB struct {
	sqlDB *sql.DB
}

func NewDB(sqlDB *sql.DB) DB {
	return DB{
		sqlDB: sqlDB,
	}
}

func (d DB) GetUserByEmail(ctx context.Context, email string) (userentity.User, error) {
	row := d.sqlDB.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, full_name, is_active
		 FROM users WHERE email = ?`, email)

	return scanUser(row)
}

// GetActiveUserByID resolves a user for session purposes. Deactivated
// accounts are treated the same as missing ones.
func (d DB) GetActiveUserByID(ctx context.Context, id int64) (userentity.User, error) {
	row := d.sqlDB.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, full_name, is_active
		 FROM users WHERE id = ? AND is_active = 1`, id)

	return scanUser(row)
}

// CreateUser inserts a new user in one statement. Email uniqueness is owned
// by the unique constraint, which rejects the second writer of a racing pair.
func (d DB) CreateUser(ctx context.Context, email string, hashedPassword string, fullName string) (userentity.User, error) {
	result, err := d.sqlDB.ExecContext(ctx,
		`INSERT INTO users (email, hashed_password, full_name) VALUES (?, ?, ?)`,
		email, hashedPassword, fullName)

	if err != nil {
		if isUniqueViolation(err) {
			return userentity.User{}, mark.Wrap(err, DuplicateEmailMark, "Email is already taken")
		}

		return userentity.User{}, mark.Wrap(err, DefaultErrorMark, "Failed to insert user")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return userentity.User{}, mark.Wrap(err, DefaultErrorMark, "Failed to read inserted user ID")
	}

	return userentity.User{
		ID:             id,
		Email:          email,
		HashedPassword: hashedPassword,
		FullName:       fullName,
		IsActive:       true,
	}, nil
}

func scanUser(row *sql.Row) (userentity.User, error) {
	value := userentity.User{}
	err := row.Scan(&value.ID, &value.Email, &value.HashedPassword, &value.FullName, &value.IsActive)

	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return userentity.User{}, mark.Wrap(err, UserNotFoundMark, "User is not found")
		default:
			return userentity.User{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch user")
		}
	}

	return value, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE
	}

	return false
}
