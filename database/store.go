package database

import (
	"context"
	"errors"

	"learnerslogue/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = errors.New("document not found")

	// ErrVersionConflict is returned by Save when the stored document changed
	// since it was read. Callers re-read and retry.
	ErrVersionConflict = errors.New("document was modified concurrently")

	ErrDuplicate = errors.New("document already exists")
)

// Save on every versioned store is a whole-document overwrite guarded by the
// version read alongside the document. A successful Save bumps Version and
// UpdatedAt on the passed document.

type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	// FindByEmailOrPhone matches any non-empty handle.
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Save(ctx context.Context, u *models.User) error
}

type PostFilter struct {
	AuthorID   primitive.ObjectID // zero matches any author
	Visibility models.Visibility  // empty matches any visibility
}

type PostStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	// Find returns matching posts newest first.
	Find(ctx context.Context, f PostFilter) ([]models.Post, error)
	Create(ctx context.Context, p *models.Post) error
	Save(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type EventStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	// Find returns events hosted by hostID, or every event when hostID is zero,
	// soonest first.
	Find(ctx context.Context, hostID primitive.ObjectID) ([]models.Event, error)
	Create(ctx context.Context, e *models.Event) error
	Save(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type JobStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	// FindAll returns every job newest first.
	FindAll(ctx context.Context) ([]models.Job, error)
	Create(ctx context.Context, j *models.Job) error
}

// OTPStore keeps at most one live code per email.
type OTPStore interface {
	Put(ctx context.Context, otp models.OTP) error
	Get(ctx context.Context, email string) (*models.OTP, error)
	Delete(ctx context.Context, email string) error
}

// PushSubscriptionStore keeps one push endpoint per user.
type PushSubscriptionStore interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.PushSubscription, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

type Stores struct {
	Users    UserStore
	Posts    PostStore
	Events   EventStore
	Jobs     JobStore
	OTPs     OTPStore
	PushSubs PushSubscriptionStore
}
