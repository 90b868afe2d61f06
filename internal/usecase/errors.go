package usecase

import (
	"errors"
	"fmt"
)

// DomainError is a caller error: the request itself is unusable.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

var ErrMissingContactID = &DomainError{Code: "MISSING_CONTACT_ID", Message: "contactId is required"}

// ResolutionKind classifies why a contact could not be resolved.
type ResolutionKind string

const (
	ResolutionNotFound  ResolutionKind = "not_found"
	ResolutionTransport ResolutionKind = "transport"
	ResolutionMalformed ResolutionKind = "malformed_response"
)

var ErrContactNotFound = errors.New("contact not found")

// ResolutionError reports that no candidate endpoint produced a contact.
type ResolutionError struct {
	Kind      ResolutionKind
	ContactID string
	Attempts  int
	Err       error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve contact %s (%s after %d attempts): %v", e.ContactID, e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("resolve contact %s: %s after %d attempts", e.ContactID, e.Kind, e.Attempts)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrContactNotFound) match every resolution failure
// of kind not_found.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrContactNotFound && e.Kind == ResolutionNotFound
}

func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
