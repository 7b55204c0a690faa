package models

// Site is one monitored website as read from the site list.
// URL is expected to be the site root ending in "/", e.g. "https://www.example.com/".
type Site struct {
	URL   string `json:"url" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// SiteRecord is the persisted two-slot state for a site.
// A nil slot means that file has never been written.
type SiteRecord struct {
	OldContent             *string
	NewContent             *string
	HasCompletedFirstCheck bool
}

// CommitResult describes what a commit replaced.
type CommitResult struct {
	// PreviousContent is the value of the new slot before the commit, nil on the first commit.
	PreviousContent *string
	WasFirstCheck   bool
}
