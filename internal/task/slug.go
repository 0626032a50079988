package task

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const maxSlugLength = 40

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug turns a task name into a filename-safe slug, cut at a word
// boundary when longer than maxSlugLength. Empty results become "task".
func GenerateSlug(name string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugLength {
		cut := slug[:maxSlugLength]
		if slug[maxSlugLength] != '-' {
			if idx := strings.LastIndex(cut, "-"); idx > 0 {
				cut = cut[:idx]
			}
		}
		slug = strings.TrimRight(cut, "-")
	}
	if slug == "" {
		return "task"
	}
	return slug
}

// Filename is the canonical file name for t: zero-padded id plus slug.
func Filename(t *Task) string {
	width := max(3, len(strconv.Itoa(t.ID))) //nolint:mnd // minimum pad width
	return fmt.Sprintf("%0*d-%s.md", width, t.ID, GenerateSlug(t.Name))
}
