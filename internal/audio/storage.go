// Package audio resolves stored audio paths and coordinates playback so that
// only one clip plays at a time.
package audio

import (
	"fmt"
	"net/url"
	"strings"
)

// Storage locates public objects in a storage bucket
type Storage struct {
	BaseURL string
	Bucket  string
}

// PublicURL turns a bucket path such as "daily/Daily_001_1.mp3" into its public URL.
// Absolute URLs pass through unchanged, as does everything when no base is configured.
func (s Storage) PublicURL(path string) string {
	if path == "" || s.BaseURL == "" || isAbsolute(path) {
		return path
	}
	escaped := make([]string, 0, 4)
	for _, part := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		strings.TrimRight(s.BaseURL, "/"),
		url.PathEscape(s.Bucket),
		strings.Join(escaped, "/"),
	)
}

// BuildPath joins a category slug and a file name into a bucket path
func BuildPath(categorySlug, filename string) string {
	return categorySlug + "/" + filename
}

// ParsePath splits a bucket path into its category slug and file name.
// Everything after the first slash belongs to the file name.
func ParsePath(path string) (categorySlug, filename string, err error) {
	slug, file, ok := strings.Cut(path, "/")
	if !ok || slug == "" || file == "" {
		return "", "", fmt.Errorf("invalid audio path: %s", path)
	}
	return slug, file, nil
}

func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
