package urlhandler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/aleister1102/robotswatch/internal/models"
)

// Regex for cleaning filenames
var (
	unsafeFilenameCharsRegex = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)
	multipleUnderscoresRegex = regexp.MustCompile(`_+`)
)

// NormalizeSiteURL trims surrounding whitespace and lowercases the URL.
func NormalizeSiteURL(rawURL string) string {
	return strings.ToLower(strings.TrimSpace(rawURL))
}

// NormalizeEmail trims surrounding whitespace from an address.
func NormalizeEmail(address string) string {
	return strings.TrimSpace(address)
}

// ValidateSiteURL checks that rawURL is an absolute http(s) URL naming a site root,
// i.e. it ends with "/" and carries no query or fragment.
func ValidateSiteURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, &models.URLValidationError{URL: rawURL, Message: "URL is empty"}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, &models.URLValidationError{URL: rawURL, Message: fmt.Sprintf("could not parse URL: %v", err)}
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, &models.URLValidationError{URL: rawURL, Message: "URL must start with http:// or https://"}
	}
	if parsedURL.Hostname() == "" {
		return nil, &models.URLValidationError{URL: rawURL, Message: "URL lacks a valid hostname"}
	}
	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return nil, &models.URLValidationError{URL: rawURL, Message: "URL must not contain a query or fragment"}
	}
	if !strings.HasSuffix(rawURL, "/") {
		return nil, &models.URLValidationError{URL: rawURL, Message: "URL must end with a trailing slash"}
	}

	return parsedURL, nil
}

// ResourceURL joins a validated site URL and a resource path such as "robots.txt".
func ResourceURL(siteURL, resource string) string {
	return siteURL + strings.TrimPrefix(resource, "/")
}

// siteKeyHashSeparator never survives SanitizeFilename, so hashed keys cannot
// collide with plain ones.
const siteKeyHashSeparator = "~"

// SiteKey derives the storage key for a site from its host and path; the scheme is ignored.
// A bare host root keeps its name: "https://www.example.com/" becomes "www.example.com".
// Any other URL gets a hash of host+path appended to the sanitized name, so
// "https://a.test/a/b/" and "https://a.test/a_b/" never share a record:
// "a.test_a_b~<12 hex chars>".
func SiteKey(siteURL *url.URL) string {
	raw := strings.ToLower(siteURL.Host) + siteURL.EscapedPath()
	name := SanitizeFilename(raw)
	if raw == name+"/" {
		return name
	}

	sum := sha256.Sum256([]byte(raw))
	return name + siteKeyHashSeparator + hex.EncodeToString(sum[:6])
}

// SanitizeFilename converts a string into a safe name for a file or directory.
// A scheme prefix is dropped, unsafe characters collapse into single underscores.
func SanitizeFilename(input string) string {
	name := input
	if i := strings.Index(name, "://"); i != -1 {
		name = name[i+3:]
	}

	name = unsafeFilenameCharsRegex.ReplaceAllString(name, "_")
	name = multipleUnderscoresRegex.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_.")

	if name == "" {
		return "sanitized_empty_input"
	}

	return name
}
