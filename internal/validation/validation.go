package validation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"issuebrowser/internal/models"
	"issuebrowser/internal/taxonomy"
)

// MaxKeywordsLength bounds the free-text part of a search.
const MaxKeywordsLength = 256

// ValidateKeywords checks free-text search input. Empty input is valid and
// means "no keywords".
func ValidateKeywords(keywords string) (bool, string) {
	if !utf8.ValidString(keywords) {
		return false, "Keywords must be valid UTF-8"
	}
	if utf8.RuneCountInString(keywords) > MaxKeywordsLength {
		return false, fmt.Sprintf("Keywords must be at most %d characters", MaxKeywordsLength)
	}
	for _, r := range keywords {
		if unicode.IsControl(r) && r != '\t' {
			return false, "Keywords must not contain control characters"
		}
	}
	return true, ""
}

// ValidateFilterValues checks that category exists and every value belongs
// to it. Blank values are ignored; no values clears the category.
func ValidateFilterValues(tax *taxonomy.Taxonomy, category string, values []string) (bool, string) {
	if strings.TrimSpace(category) == "" {
		return false, "Category is required"
	}
	if len(tax.Values(category)) == 0 {
		return false, fmt.Sprintf("Unknown label category %q", category)
	}
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if !tax.Has(category, v) {
			return false, fmt.Sprintf("Unknown value %q for category %q", v, category)
		}
	}
	return true, ""
}

// ParseSort parses a sort field and optional order from form input. An empty
// order is returned as-is so the field's default order applies.
func ParseSort(field, order string) (models.SortField, models.SortOrder, string) {
	f, err := models.ParseSortField(strings.TrimSpace(field))
	if err != nil {
		return "", "", "Unknown sort field"
	}
	order = strings.TrimSpace(order)
	if order == "" {
		return f, "", ""
	}
	o, err := models.ParseSortOrder(order)
	if err != nil {
		return "", "", "Sort order must be asc or desc"
	}
	return f, o, ""
}

// ParseIssueID parses a positive issue ID from a route parameter.
func ParseIssueID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}
