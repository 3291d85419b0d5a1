package errors

import (
	"errors"
)

// Custom error types for the link shortener application.
// Handlers map these sentinels onto HTTP statuses; services never touch
// status codes directly.

// ErrLinkNotFound is returned when a short code doesn't exist in the active store.
var ErrLinkNotFound = errors.New("link not found")

// ErrLinkExpired is returned when a resolved link is past its expiration.
// By the time the caller sees this error the link has already been moved to
// the archive, so a second resolution of the same code yields ErrLinkNotFound.
var ErrLinkExpired = errors.New("link expired and archived")

// ErrAliasConflict is returned when a requested custom alias collides with an
// existing active short code or alias.
var ErrAliasConflict = errors.New("alias already exists")

// ErrExpirationInPast is returned when a creation request carries an
// expiration timestamp that has already passed.
var ErrExpirationInPast = errors.New("expiration date must be in the future")

// ErrForbidden is returned on any ownership violation, including every
// mutation attempt against an anonymous (ownerless) link.
var ErrForbidden = errors.New("permission denied")

// ErrEmailTaken is returned when registering with an email that already has an account.
var ErrEmailTaken = errors.New("email already registered")

// ErrInvalidCredentials is returned on a failed login attempt.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// ErrProjectNotFound is returned when a project doesn't exist or isn't owned
// by the requesting user.
var ErrProjectNotFound = errors.New("project not found")

// ErrDuplicateProject is returned when an owner already has a project with the same name.
var ErrDuplicateProject = errors.New("project with this name already exists")

// ErrDuplicateProjectLink is returned when a link is already associated with the project.
var ErrDuplicateProjectLink = errors.New("link already in project")

// ErrShortCodeGenerationFailed is returned when we can't generate a unique short code.
var ErrShortCodeGenerationFailed = errors.New("failed to generate unique short code")
