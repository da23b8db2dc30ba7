package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	MaxTagLength      = 50
	MaxTitleLength    = 200
	MaxFilenameLength = 255
)

// Document is the metadata row for an uploaded blob.
type Document struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Filename    string       `json:"filename"`
	StoragePath string       `json:"-"`
	FileSize    int64        `json:"file_size"`
	FileType    string       `json:"file_type"`
	Description string       `json:"description"`
	UploadedAt  time.Time    `json:"upload_date"`
	OwnerID     int64        `json:"user_id"`
	OwnerName   string       `json:"owner"`
	CategoryID  *int64       `json:"category_id"`
	Category    *CategoryRef `json:"category"`
	Tags        []string     `json:"tags"`
}

// CategoryRef is the slice of a category embedded in document views.
type CategoryRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ParseTags splits a comma-separated tag list.
func ParseTags(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(csv, ","))
}

// NormalizeTags trims every tag and drops empty or over-long entries.
func NormalizeTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" || utf8.RuneCountInString(t) > MaxTagLength {
			continue
		}
		tags = append(tags, t)
	}
	return tags
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^\w\s.-]`)
	filenameSeparators  = regexp.MustCompile(`[-\s]+`)
)

// SanitizeFilename folds name to ASCII and keeps only word characters,
// dots and dashes. Runs of whitespace and dashes collapse to one dash.
func SanitizeFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}

	s := unsafeFilenameChars.ReplaceAllString(b.String(), "")
	s = strings.TrimSpace(s)
	return filenameSeparators.ReplaceAllString(s, "-")
}

// SplitExtension returns the part of name before the last dot and the
// lower-cased extension after it. ok is false when there is no extension.
func SplitExtension(name string) (stem, ext string, ok bool) {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return name, "", false
	}
	return name[:i], strings.ToLower(name[i+1:]), true
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with one decimal on a 1024 base,
// e.g. 1536 -> "1.5 KB".
func FormatSize(n int64) string {
	size := float64(n)
	for _, unit := range sizeUnits {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f PB", size)
}
