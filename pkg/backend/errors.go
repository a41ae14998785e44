package backend

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
)

// permissionMarkers are substrings of driver errors that mean the store
// refused the write rather than failed.
var permissionMarkers = []string{
	"permission denied",
	"readonly database",
	"attempt to write a readonly",
	"not authorized",
}

// UserError converts a backend failure into what the user gets to see.
// Errors that already carry a user-facing message pass through and permission
// failures become errcodes.PermissionDenied. Anything else is returned as is.
func UserError(err error) error {
	if err == nil {
		return nil
	}
	var e *errcodes.Error
	if errors.As(err, &e) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range permissionMarkers {
		if strings.Contains(msg, marker) {
			return errcodes.PermissionDenied()
		}
	}
	return err
}
