package reporter

import (
	"errors"
	"testing"
	"time"

	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/stretchr/testify/assert"
)

var testSite = models.Site{URL: "https://a.test/", Name: "A", Email: "a@x.com"}

func TestEscapeMarkup(t *testing.T) {
	assert.Equal(t, "{html}boom{/html}", EscapeMarkup("<html>boom</html>"))
	assert.Equal(t, "plain", EscapeMarkup("plain"))
}

func TestMessageComposer_SiteBody(t *testing.T) {
	composer := NewMessageComposer("admin@x.com")

	expected := "Hi there,\n\nHello\n\nThis is an automated message; please do not reply directly to this email. " +
		"If you have any questions, bug reports, or feedback, please contact the tool administrator: " +
		"<a href=\"mailto:admin@x.com\">admin@x.com</a>. Thanks!\n"
	assert.Equal(t, expected, composer.SiteBody("Hello"))
}

func TestMessageComposer_AdminBody(t *testing.T) {
	composer := NewMessageComposer("admin@x.com")

	assert.Equal(t, "Hi there,\n\nDone.\n\nThere were no unexpected errors.", composer.AdminBody("Done.", nil))

	body := composer.AdminBody("Done.", []string{"first <err>", "second"})
	assert.Equal(t, "Hi there,\n\nDone.\n\nErrors which may require investigation are listed below:\n\nfirst {err}\n\nsecond", body)
}

func TestMessageComposer_CheckErrorEscapesDetail(t *testing.T) {
	composer := NewMessageComposer("admin@x.com")

	msg := composer.CheckError(testSite, models.CheckError{Class: models.ErrorClassFetch, Message: "got <b>404</b>"})
	assert.Equal(t, "a@x.com", msg.Address)
	assert.Equal(t, "Robots.txt check failed: A", msg.Subject)
	assert.Contains(t, msg.Body, "got {b}404{/b}")
	assert.NotContains(t, msg.Body, "<b>")
	assert.Empty(t, msg.Attachments)
}

func TestMessageComposer_Changed(t *testing.T) {
	composer := NewMessageComposer("admin@x.com")
	change := models.Changed{OldContent: "User-agent: *", NewContent: "User-agent: *\nDisallow: /"}

	msg := composer.Changed(testSite, change, "1 line(s) added, 0 line(s) removed", []string{"WARNING: blocked"}, ChangeAttachments{OldSnapshot: "/tmp/old.txt"})
	assert.Equal(t, "Robots.txt change detected: A", msg.Subject)
	assert.Contains(t, msg.Body, "Summary: 1 line(s) added, 0 line(s) removed.")
	assert.Contains(t, msg.Body, "WARNING: blocked")
	assert.Contains(t, msg.Body, "Previous version:\n\nUser-agent: *\n\nNew version:\n\nUser-agent: *\nDisallow: /")
	assert.Equal(t, []string{"/tmp/old.txt"}, msg.Attachments)
	assert.Contains(t, msg.Body, "The previous version is attached.")
	assert.NotContains(t, msg.Body, "side-by-side")
}

func TestMessageComposer_ChangedDescribesAttachments(t *testing.T) {
	composer := NewMessageComposer("admin@x.com")
	change := models.Changed{OldContent: "a", NewContent: "b"}

	tests := []struct {
		name        string
		attachments ChangeAttachments
		sentence    string
	}{
		{"all", ChangeAttachments{OldSnapshot: "o", NewSnapshot: "n", DiffPage: "d"}, "The previous version, the new version and a side-by-side comparison are attached."},
		{"snapshots only", ChangeAttachments{OldSnapshot: "o", NewSnapshot: "n"}, "The previous version and the new version are attached."},
		{"new and diff", ChangeAttachments{NewSnapshot: "n", DiffPage: "d"}, "The new version and a side-by-side comparison are attached."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := composer.Changed(testSite, change, "", nil, tt.attachments)
			assert.Contains(t, msg.Body, tt.sentence)
			assert.Equal(t, tt.attachments.Paths(), msg.Attachments)
		})
	}

	msg := composer.Changed(testSite, change, "", nil, ChangeAttachments{})
	assert.NotContains(t, msg.Body, "attached")
	assert.Empty(t, msg.Attachments)
}

func TestMessageComposer_RunSummary(t *testing.T) {
	composer := NewMessageComposer("admin@x.com")
	start := time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC)

	msg := composer.RunSummary(models.RunSummary{
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		NoChange:   2,
		Errors:     1,
		Digest:     []string{"storage <fail>"},
	})

	assert.Equal(t, "admin@x.com", msg.Address)
	assert.Equal(t, "Robots.txt monitor run summary (05-03-24)", msg.Subject)
	assert.Contains(t, msg.Body, "completed for 3 site(s) in 1m30s. No change: 2, changed: 0, first run: 0, errors: 1.")
	assert.Contains(t, msg.Body, "storage {fail}")
}

func TestMessageComposer_RunFailed(t *testing.T) {
	composer := NewMessageComposer("admin@x.com")

	msg := composer.RunFailed(errors.New("open monitored_sites.csv: no such file"))
	assert.Equal(t, "admin@x.com", msg.Address)
	assert.Contains(t, msg.Body, "could not be run")
	assert.Contains(t, msg.Body, "no such file")
}
