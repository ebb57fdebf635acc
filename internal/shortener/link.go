package shortener

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("link not found")
	ErrInvalidURL         = errors.New("invalid url")
	ErrCodeTaken          = errors.New("short code already in use")
	ErrCodeSpaceExhausted = errors.New("could not allocate a free short code")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("link belongs to another owner")
)

// Code represents a short URL code.
type Code string

// OwnerID identifies the owner of a link. The zero value is an anonymous owner.
type OwnerID string

// Anonymous reports whether the id names nobody.
func (o OwnerID) Anonymous() bool {
	return o == ""
}

// Link maps a short code to the URL it was created for.
type Link struct {
	Code        Code
	OriginalURL string
	Owner       OwnerID // empty for anonymous submissions
	CreatedAt   time.Time
}

// OwnedBy reports whether owner created the link. Anonymous links are owned by nobody.
func (l *Link) OwnedBy(owner OwnerID) bool {
	return !owner.Anonymous() && l.Owner == owner
}

// Repository defines the storage operations for links.
type Repository interface {
	// Create persists a new link. It returns ErrCodeTaken when the code is already used.
	Create(ctx context.Context, link *Link) error
	// GetByCode returns ErrNotFound if no link has the code.
	GetByCode(ctx context.Context, code Code) (*Link, error)
	// ListByOwner returns the owner's links, most recently created first.
	ListByOwner(ctx context.Context, owner OwnerID) ([]Link, error)
	CodeExists(ctx context.Context, code Code) (bool, error)
}
