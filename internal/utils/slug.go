package utils

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnumRegex  = regexp.MustCompile(`[^a-z0-9]+`)
	multiDashRegex = regexp.MustCompile(`-+`)
	dStroke        = strings.NewReplacer("đ", "d", "Đ", "d")
)

// Slugify lower-cases input, strips diacritics and joins the remaining
// alphanumeric runs with dashes: "Bàn phím cơ Đen" -> "ban-phim-co-den".
func Slugify(input string) string {
	slug := strings.ToLower(strings.TrimSpace(input))
	slug = dStroke.Replace(slug)

	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if s, _, err := transform.String(stripMarks, slug); err == nil {
		slug = s
	}

	slug = nonAlnumRegex.ReplaceAllString(slug, "-")
	slug = multiDashRegex.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// SlugWithSuffix returns base for n <= 1, otherwise base-n.
func SlugWithSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

const maxSlugAttempts = 100

// UniqueSlug returns the first of base, base-2, base-3, ... for which taken
// reports false.
func UniqueSlug(ctx context.Context, base string, taken func(ctx context.Context, slug string) (bool, error)) (string, error) {
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := SlugWithSuffix(base, n)
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q", base)
}
