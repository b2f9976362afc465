package mark

import (
	"github.com/cockroachdb/errors"
)

// Wrap annotates err with a message and tags it with the given mark so that
// callers can branch on markers.Is without string matching.
func Wrap(err error, markErr error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), markErr)
}

// Message creates a new marked error from scratch.
func Message(markErr error, msg string) error {
	return errors.Mark(errors.New(msg), markErr)
}
