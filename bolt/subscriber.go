package bolt

import (
	"context"

	"github.com/asdine/storm/v3"
	"github.com/go-errors/errors"

	"github.com/quantonganh/newsletter"
)

type subscriberService struct {
	db *DB
}

// NewSubscriberService returns a SubscriberService backed by a bolt file
func NewSubscriberService(db *DB) newsletter.SubscriberService {
	return &subscriberService{
		db: db,
	}
}

// FindByEmail finds a subscriber by email
func (ss *subscriberService) FindByEmail(_ context.Context, email string) (*newsletter.Subscriber, error) {
	var s newsletter.Subscriber
	if err := ss.db.stormDB.One("Email", email, &s); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return nil, &newsletter.Error{Code: newsletter.ErrNotFound, Op: "bolt.FindByEmail", Message: "subscriber not found"}
		}
		return nil, errors.Errorf("failed to find by email: %v", err)
	}

	return &s, nil
}

// Insert inserts new subscriber into stormDB
func (ss *subscriberService) Insert(ctx context.Context, s *newsletter.Subscriber) error {
	if _, err := ss.FindByEmail(ctx, s.Email); err == nil {
		return &newsletter.Error{Code: newsletter.ErrConflict, Op: "bolt.Insert", Message: "subscriber already exists"}
	} else if newsletter.ErrorCode(err) != newsletter.ErrNotFound {
		return err
	}

	if err := ss.db.stormDB.Save(s); err != nil {
		return errors.Errorf("failed to save: %v", err)
	}

	return nil
}

// Delete removes the subscriber with the given email
func (ss *subscriberService) Delete(ctx context.Context, email string) error {
	s, err := ss.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := ss.db.stormDB.DeleteStruct(s); err != nil {
		return errors.Errorf("failed to delete: %v", err)
	}

	return nil
}

// Emails returns the email of every subscriber
func (ss *subscriberService) Emails(_ context.Context) ([]string, error) {
	var subscribers []newsletter.Subscriber
	if err := ss.db.stormDB.All(&subscribers); err != nil && !errors.Is(err, storm.ErrNotFound) {
		return nil, errors.Errorf("failed to list subscribers: %v", err)
	}

	emails := make([]string, 0, len(subscribers))
	for _, s := range subscribers {
		emails = append(emails, s.Email)
	}

	return emails, nil
}
