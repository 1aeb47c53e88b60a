package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

type Uploader interface {
	// Upload writes r under objectName and returns a retrievable URL.
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (fileURL string, err error)
	// Delete removes an object; a missing object is not an error.
	Delete(ctx context.Context, objectName string) error
}

type Opener interface {
	Open(ctx context.Context, objectName string) (io.ReadCloser, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectName builds the storage-internal name of an upload:
// uploads/<user>/<unix millis>_<sanitized original name>.
func ObjectName(userID, originalName string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(originalName, "\\", "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "_")
	if base == "" || base == "." {
		base = "file"
	}
	return fmt.Sprintf("uploads/%s/%d_%s", userID, at.UnixMilli(), base)
}
