package services

import (
	"context"
	"errors"
	"fmt"

	"learnerslogue/database"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuthorization
	KindForbidden
	KindConflict
	KindExpired
	KindUpstream
)

// Error is a failure the HTTP layer can render for the caller. Code is the
// machine readable discriminator, Message is safe to show.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel errors by code so wrapped copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code != "" && t.Code == e.Code
}

var (
	ErrSelfFollow       = &Error{Kind: KindConflict, Code: "SELF_REFERENCE", Message: "You cannot follow yourself."}
	ErrAlreadyFollowing = &Error{Kind: KindConflict, Code: "ALREADY_FOLLOWING", Message: "Already following this user."}
	ErrAlreadyVoted     = &Error{Kind: KindConflict, Code: "ALREADY_VOTED", Message: "User already voted"}
	ErrInvalidOption    = &Error{Kind: KindValidation, Code: "INVALID_OPTION", Message: "Invalid option index"}
	ErrPollExpired      = &Error{Kind: KindExpired, Code: "POLL_EXPIRED", Message: "Poll has expired"}

	ErrUserNotFound      = &Error{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "User not found"}
	ErrPostNotFound      = &Error{Kind: KindNotFound, Code: "POST_NOT_FOUND", Message: "Post not found"}
	ErrPollNotFound      = &Error{Kind: KindNotFound, Code: "POLL_NOT_FOUND", Message: "Poll post not found"}
	ErrMilestoneNotFound = &Error{Kind: KindNotFound, Code: "MILESTONE_NOT_FOUND", Message: "Milestone not found"}
	ErrEventNotFound     = &Error{Kind: KindNotFound, Code: "EVENT_NOT_FOUND", Message: "Event not found."}
	ErrJobNotFound       = &Error{Kind: KindNotFound, Code: "JOB_NOT_FOUND", Message: "Job not found"}

	ErrUserExists         = &Error{Kind: KindConflict, Code: "USER_EXISTS", Message: "User already exists."}
	ErrInvalidCredentials = &Error{Kind: KindAuthorization, Code: "INVALID_CREDENTIALS", Message: "Invalid credentials"}
	ErrAlreadyRegistered  = &Error{Kind: KindConflict, Code: "ALREADY_REGISTERED", Message: "You are already registered for this event."}
	ErrNotRegistered      = &Error{Kind: KindConflict, Code: "NOT_REGISTERED", Message: "You are not registered for this event."}
	ErrEventFull          = &Error{Kind: KindConflict, Code: "EVENT_FULL", Message: "Event is full. No more registrations allowed."}
	ErrConcurrentUpdate   = &Error{Kind: KindConflict, Code: "CONCURRENT_UPDATE", Message: "The record was updated concurrently, please retry"}

	ErrOTPNotFound = &Error{Kind: KindValidation, Code: "OTP_NOT_FOUND", Message: "OTP not found"}
	ErrOTPExpired  = &Error{Kind: KindValidation, Code: "OTP_EXPIRED", Message: "OTP expired"}
	ErrOTPInvalid  = &Error{Kind: KindValidation, Code: "OTP_INVALID", Message: "Invalid OTP"}
)

func validationError(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Code: "VALIDATION", Message: fmt.Sprintf(format, args...)}
}

func forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: msg}
}

func upstreamError(msg string, err error) error {
	return &Error{Kind: KindUpstream, Code: "UPSTREAM", Message: msg, Err: err}
}

// notFound maps a store miss to the entity's sentinel and passes other errors through.
func notFound(err error, sentinel *Error) error {
	if errors.Is(err, database.ErrNotFound) {
		return sentinel
	}
	return err
}

const defaultSaveAttempts = 10

// retryOnConflict re-runs a read-modify-write cycle while the store reports a
// stale write. fn must re-read every document it saves.
func retryOnConflict(ctx context.Context, attempts int, fn func() error) error {
	if attempts <= 0 {
		attempts = defaultSaveAttempts
	}
	for i := 0; ; i++ {
		err := fn()
		if !errors.Is(err, database.ErrVersionConflict) {
			return err
		}
		if i+1 >= attempts {
			return &Error{Kind: KindConflict, Code: ErrConcurrentUpdate.Code, Message: ErrConcurrentUpdate.Message, Err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
}
