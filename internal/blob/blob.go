// Package blob stores post images and returns their public download URLs.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

// Store uploads an object and returns a URL clients can fetch it from.
type Store interface {
	Upload(ctx context.Context, name, contentType string, size int64, r io.Reader) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectPath is posts/{unixMillis}_{filename} with the filename reduced to a safe charset.
func ObjectPath(now time.Time, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "_")
	if base == "" || base == "." {
		base = "image"
	}
	return fmt.Sprintf("posts/%d_%s", now.UnixMilli(), base)
}
