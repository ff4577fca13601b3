package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/quantonganh/newsletter"
)

type subscriberService struct {
	db *DB
}

// NewSubscriberService returns a SubscriberService backed by sqlite
func NewSubscriberService(db *DB) newsletter.SubscriberService {
	return &subscriberService{
		db: db,
	}
}

// FindByEmail finds a subscriber by email
func (ss *subscriberService) FindByEmail(ctx context.Context, email string) (*newsletter.Subscriber, error) {
	var s newsletter.Subscriber
	err := ss.db.sqlDB.GetContext(ctx, &s,
		"SELECT name, email, otp, password FROM subscribers WHERE email = ?", email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &newsletter.Error{Code: newsletter.ErrNotFound, Op: "sqlite.FindByEmail", Message: "subscriber not found"}
		}
		return nil, fmt.Errorf("failed to find by email %s: %w", email, err)
	}
	return &s, nil
}

// Insert inserts a new subscriber
func (ss *subscriberService) Insert(ctx context.Context, s *newsletter.Subscriber) error {
	_, err := ss.db.sqlDB.ExecContext(ctx,
		"INSERT INTO subscribers (name, email, otp, password) VALUES (?, ?, ?, ?)",
		s.Name, s.Email, s.OTP, s.Password)
	if err != nil {
		var sqliteErr *msqlite.Error
		if errors.As(err, &sqliteErr) && isConstraintViolation(sqliteErr.Code()) {
			return &newsletter.Error{Code: newsletter.ErrConflict, Op: "sqlite.Insert", Message: "subscriber already exists"}
		}
		return fmt.Errorf("failed to insert: %w", err)
	}
	return nil
}

// Delete removes the subscriber with the given email
func (ss *subscriberService) Delete(ctx context.Context, email string) error {
	res, err := ss.db.sqlDB.ExecContext(ctx, "DELETE FROM subscribers WHERE email = ?", email)
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return &newsletter.Error{Code: newsletter.ErrNotFound, Op: "sqlite.Delete", Message: "subscriber not found"}
	}
	return nil
}

// Emails returns the email of every subscriber
func (ss *subscriberService) Emails(ctx context.Context) ([]string, error) {
	var emails []string
	if err := ss.db.sqlDB.SelectContext(ctx, &emails, "SELECT COALESCE(email, '') FROM subscribers"); err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	return emails, nil
}

func isConstraintViolation(code int) bool {
	return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
