package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/quantonganh/newsletter"
)

const uniqueViolation = "23505"

type subscriberService struct {
	db *DB
}

// NewSubscriberService returns a SubscriberService backed by postgres
func NewSubscriberService(db *DB) newsletter.SubscriberService {
	return &subscriberService{
		db: db,
	}
}

// FindByEmail finds a subscriber by email
func (ss *subscriberService) FindByEmail(ctx context.Context, email string) (*newsletter.Subscriber, error) {
	var s newsletter.Subscriber
	err := ss.db.sqlDB.GetContext(ctx, &s,
		`SELECT name, email, otp, password FROM subscribers WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &newsletter.Error{Code: newsletter.ErrNotFound, Op: "postgres.FindByEmail", Message: "subscriber not found"}
		}
		return nil, errors.Wrapf(err, "failed to find by email %s", email)
	}
	return &s, nil
}

// Insert inserts a new subscriber
func (ss *subscriberService) Insert(ctx context.Context, s *newsletter.Subscriber) error {
	_, err := ss.db.sqlDB.ExecContext(ctx,
		`INSERT INTO subscribers (name, email, otp, password) VALUES ($1, $2, $3, $4)`,
		s.Name, s.Email, s.OTP, s.Password)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return &newsletter.Error{Code: newsletter.ErrConflict, Op: "postgres.Insert", Message: "subscriber already exists"}
		}
		return errors.Wrap(err, "failed to insert")
	}
	return nil
}

// Delete removes the subscriber with the given email
func (ss *subscriberService) Delete(ctx context.Context, email string) error {
	res, err := ss.db.sqlDB.ExecContext(ctx, `DELETE FROM subscribers WHERE email = $1`, email)
	if err != nil {
		return errors.Wrap(err, "failed to delete")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return &newsletter.Error{Code: newsletter.ErrNotFound, Op: "postgres.Delete", Message: "subscriber not found"}
	}
	return nil
}

// Emails returns the email of every subscriber
func (ss *subscriberService) Emails(ctx context.Context) ([]string, error) {
	var emails []string
	if err := ss.db.sqlDB.SelectContext(ctx, &emails, `SELECT COALESCE(email, '') FROM subscribers`); err != nil {
		return nil, errors.Wrap(err, "failed to list emails")
	}
	return emails, nil
}
