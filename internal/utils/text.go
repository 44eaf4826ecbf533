package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	slugMaxLen    = 50
	titleMaxWords = 6
	titleEllipsis = "..."
)

var (
	nonWordChars  = regexp.MustCompile(`[^\w\s-]`)
	separatorRuns = regexp.MustCompile(`[\s_-]+`)
	edgeHyphens   = regexp.MustCompile(`^-+|-+$`)
)

// GenerateSlug derives a URL-safe identifier from a title. The current time in
// milliseconds is appended so that repeated titles still yield unique slugs.
func GenerateSlug(text string) string {
	slug := strings.ToLower(text)
	slug = nonWordChars.ReplaceAllString(slug, "")
	slug = separatorRuns.ReplaceAllString(slug, "-")
	slug = edgeHyphens.ReplaceAllString(slug, "")
	if len(slug) > slugMaxLen {
		slug = slug[:slugMaxLen]
	}
	return slug + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// ExtractTitle derives a short conversation title from the first message: the
// first 6 words, with an ellipsis marker when the message is longer than that.
func ExtractTitle(content string) string {
	words := strings.Split(content, " ")
	if len(words) <= titleMaxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:titleMaxWords], " ") + titleEllipsis
}
