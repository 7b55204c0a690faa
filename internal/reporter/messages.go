package reporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/aleister1102/robotswatch/internal/models"
)

// Subjects of the messages sent to site owners and the administrator.
const (
	SubjectFirstObservation = "Robots.txt monitoring started: %s"
	SubjectChanged          = "Robots.txt change detected: %s"
	SubjectCheckError       = "Robots.txt check failed: %s"
	SubjectRunSummary       = "Robots.txt monitor run summary (%s)"
	SubjectRunFailed        = "Robots.txt monitor run failed (%s)"
)

// EscapeMarkup swaps angle brackets for curly ones so that error text is never
// rendered as HTML by a mail client.
func EscapeMarkup(content string) string {
	return strings.NewReplacer("<", "{", ">", "}").Replace(content)
}

// MessageComposer builds the plain-text bodies of outbound messages.
type MessageComposer struct {
	adminEmail string
	now        func() time.Time
}

// NewMessageComposer creates a MessageComposer. adminEmail is quoted as the point of contact.
func NewMessageComposer(adminEmail string) *MessageComposer {
	return &MessageComposer{adminEmail: adminEmail, now: time.Now}
}

// SiteBody wraps content in the greeting and footer sent to site owners.
func (c *MessageComposer) SiteBody(content string) string {
	emailLink := fmt.Sprintf("<a href=\"mailto:%s\">%s</a>", c.adminEmail, c.adminEmail)
	return fmt.Sprintf("Hi there,\n\n%s\n\nThis is an automated message; please do not reply directly "+
		"to this email. If you have any questions, bug reports, or feedback, please "+
		"contact the tool administrator: %s. Thanks!\n", content, emailLink)
}

// AdminBody wraps content and the collected errors for the administrator.
func (c *MessageComposer) AdminBody(content string, errs []string) string {
	if len(errs) == 0 {
		return fmt.Sprintf("Hi there,\n\n%s\n\nThere were no unexpected errors.", content)
	}

	escaped := make([]string, len(errs))
	for i, e := range errs {
		escaped[i] = EscapeMarkup(e)
	}
	return fmt.Sprintf("Hi there,\n\n%s\n\nErrors which may require investigation are listed below:\n\n%s",
		content, strings.Join(escaped, "\n\n"))
}

// FirstObservation is the message telling a site owner monitoring has begun.
func (c *MessageComposer) FirstObservation(site models.Site, content string, notes []string, attachments []string) models.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Robots.txt monitoring has started for %s (%s). ", site.Name, site.URL)
	sb.WriteString("Future changes to the file will be reported to this address.")
	writeNotes(&sb, notes)
	sb.WriteString("\n\nThe current robots.txt file is shown below:\n\n")
	sb.WriteString(content)

	return c.siteMessage(site, fmt.Sprintf(SubjectFirstObservation, site.Name), sb.String(), attachments)
}

// ChangeAttachments are the files written for a change report. An empty path
// means that file could not be produced.
type ChangeAttachments struct {
	OldSnapshot string
	NewSnapshot string
	DiffPage    string
}

// Paths lists the files that exist, in old, new, diff order.
func (a ChangeAttachments) Paths() []string {
	var paths []string
	for _, p := range []string{a.OldSnapshot, a.NewSnapshot, a.DiffPage} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// sentence describes the attached files, e.g. "The new version is attached."
func (a ChangeAttachments) sentence() string {
	var items []string
	if a.OldSnapshot != "" {
		items = append(items, "the previous version")
	}
	if a.NewSnapshot != "" {
		items = append(items, "the new version")
	}
	if a.DiffPage != "" {
		items = append(items, "a side-by-side comparison")
	}

	switch len(items) {
	case 0:
		return ""
	case 1:
		return capitalize(items[0]) + " is attached."
	}
	list := strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	return capitalize(list) + " are attached."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Changed is the message reporting a content change to a site owner.
func (c *MessageComposer) Changed(site models.Site, change models.Changed, diffSummary string, notes []string, attachments ChangeAttachments) models.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "A change was detected in the robots.txt file of %s (%s).", site.Name, site.URL)
	if diffSummary != "" {
		fmt.Fprintf(&sb, " Summary: %s.", diffSummary)
	}
	if sentence := attachments.sentence(); sentence != "" {
		sb.WriteString(" " + sentence)
	}
	writeNotes(&sb, notes)
	sb.WriteString("\n\nPrevious version:\n\n")
	sb.WriteString(change.OldContent)
	sb.WriteString("\n\nNew version:\n\n")
	sb.WriteString(change.NewContent)

	return c.siteMessage(site, fmt.Sprintf(SubjectChanged, site.Name), sb.String(), attachments.Paths())
}

// CheckError is the message telling a site owner the check could not complete.
func (c *MessageComposer) CheckError(site models.Site, checkErr models.CheckError) models.Message {
	content := fmt.Sprintf("The robots.txt check of %s (%s) could not be completed.\n\nError: %s",
		site.Name, site.URL, EscapeMarkup(checkErr.Message))
	if !checkErr.Class.RequiresInvestigation() {
		content += "\n\nPlease make sure the site is reachable and serves its robots.txt file."
	} else {
		content += "\n\nThe tool administrator has been notified."
	}

	return c.siteMessage(site, fmt.Sprintf(SubjectCheckError, site.Name), content, nil)
}

// RunSummary is the end-of-run digest for the administrator.
func (c *MessageComposer) RunSummary(summary models.RunSummary) models.Message {
	content := fmt.Sprintf("Robots.txt checks completed for %d site(s) in %s. %s",
		summary.Total(), summary.Duration().Round(time.Second), summary.CountLine())
	if summary.Interrupted {
		content += "\n\nThe run was interrupted before every site was checked."
	}

	return models.Message{
		Address:   c.adminEmail,
		Subject:   fmt.Sprintf(SubjectRunSummary, summary.StartedAt.Format("02-01-06")),
		Body:      c.AdminBody(content, summary.Digest),
		CreatedAt: c.now(),
	}
}

// RunFailed is the message sent when a run cannot start at all.
func (c *MessageComposer) RunFailed(err error) models.Message {
	now := c.now()
	return models.Message{
		Address:   c.adminEmail,
		Subject:   fmt.Sprintf(SubjectRunFailed, now.Format("02-01-06")),
		Body:      c.AdminBody("The robots.txt checks could not be run.", []string{err.Error()}),
		CreatedAt: now,
	}
}

func (c *MessageComposer) siteMessage(site models.Site, subject, content string, attachments []string) models.Message {
	return models.Message{
		Address:     site.Email,
		Subject:     subject,
		Body:        c.SiteBody(content),
		Attachments: attachments,
		CreatedAt:   c.now(),
	}
}

func writeNotes(sb *strings.Builder, notes []string) {
	for _, note := range notes {
		sb.WriteString("\n\n")
		sb.WriteString(note)
	}
}
