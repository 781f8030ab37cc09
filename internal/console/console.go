// Package console holds the operations behind each screen of the admin
// console. Handlers call a Service method and turn its result into a toast.
//
// Errors come in two kinds. A *ValidationError is a local check that failed
// before anything was sent to the store. Any other error came from the store
// and is reported to the operator as is.
package console

import (
	"errors"
	"time"

	"pbnadmin/internal/config"
	"pbnadmin/internal/store"
)

// ValidationError is a required field that was left empty or a bound that
// was exceeded. Title and Message are shown to the operator.
type ValidationError struct {
	Title   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Title
	}
	return e.Title + ": " + e.Message
}

func invalid(title, message string) error {
	return &ValidationError{Title: title, Message: message}
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type Service struct {
	gw      store.Gateway
	bucket  store.Bucket
	catalog config.Catalog
	now     func() time.Time
}

func New(gw store.Gateway, bucket store.Bucket, catalog config.Catalog) *Service {
	return &Service{gw: gw, bucket: bucket, catalog: catalog, now: time.Now}
}

func (s *Service) Catalog() config.Catalog {
	return s.catalog
}
