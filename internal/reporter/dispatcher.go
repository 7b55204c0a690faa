package reporter

import (
	"fmt"
	"time"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/aleister1102/robotswatch/internal/differ"
	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/aleister1102/robotswatch/internal/monitor"

	"github.com/rs/zerolog"
)

// SiteLogger appends lines to a site's own log.
type SiteLogger interface {
	Log(siteDir, message string) error
}

// RunLogger appends lines to the log shared by the whole run.
type RunLogger interface {
	Log(message string) error
}

// SnapshotStore writes timestamped artifacts next to a site's records.
type SnapshotStore interface {
	WriteContent(siteDir, label, content string, at time.Time) (string, error)
	WriteDiff(siteDir, label string, html []byte, at time.Time) (string, error)
}

// MessageQueue collects outbound messages until the end of the run.
type MessageQueue interface {
	Enqueue(msg models.Message)
}

// ReportDispatcherDeps are the collaborators of a ReportDispatcher. Differ and
// Renderer may be nil, in which case change reports carry no diff.
type ReportDispatcherDeps struct {
	SiteLog   SiteLogger
	RunLog    RunLogger
	Snapshots SnapshotStore
	Queue     MessageQueue
	Composer  *MessageComposer
	Differ    *differ.LineDiffer
	Renderer  *HTMLDiffRenderer
}

// ReportDispatcher turns a check result into log lines, snapshots and messages.
type ReportDispatcher struct {
	deps   ReportDispatcherDeps
	logger zerolog.Logger
}

// NewReportDispatcher creates a ReportDispatcher
func NewReportDispatcher(deps ReportDispatcherDeps, logger zerolog.Logger) *ReportDispatcher {
	return &ReportDispatcher{
		deps:   deps,
		logger: logger.With().Str("component", "ReportDispatcher").Logger(),
	}
}

// Dispatch performs every side effect of result. Side effects are independent;
// a failing one is reported in the returned error and the rest still run.
//
//	NoChange          site log
//	Changed           site log, run log, snapshots (+diff), message to owner
//	FirstObservation  site log, run log, snapshot, message to owner
//	CheckError        site log (if storage exists), run log, message to owner
func (d *ReportDispatcher) Dispatch(result models.CheckResult) error {
	collector := common.NewErrorCollector()

	switch outcome := result.Outcome.(type) {
	case models.NoChange:
		collector.Add(d.siteLog(result, "No change."))

	case models.Changed:
		d.dispatchChanged(result, outcome, collector)

	case models.FirstObservation:
		d.dispatchFirstObservation(result, outcome, collector)

	case models.CheckError:
		d.dispatchCheckError(result, outcome, collector)

	default:
		return fmt.Errorf("unknown outcome %T for %s", result.Outcome, result.Site.URL)
	}

	if err := collector.Error(); err != nil {
		return common.WrapError(err, "report for "+result.Site.URL+" incomplete")
	}
	return nil
}

func (d *ReportDispatcher) dispatchChanged(result models.CheckResult, change models.Changed, collector *common.ErrorCollector) {
	collector.Add(d.siteLog(result, "Change detected."))
	collector.Add(d.runLog(fmt.Sprintf("%s: change detected.", result.Site.URL)))

	var attachments ChangeAttachments
	for _, snapshot := range []struct {
		label, content string
		path           *string
	}{
		{"old", change.OldContent, &attachments.OldSnapshot},
		{"new", change.NewContent, &attachments.NewSnapshot},
	} {
		path, err := d.deps.Snapshots.WriteContent(result.SiteDir, snapshot.label, snapshot.content, result.CheckedAt)
		if err != nil {
			collector.AddWithContext(err, "snapshot of "+result.Site.URL)
			continue
		}
		*snapshot.path = path
	}

	diffSummary := ""
	if diffResult := d.diff(change); diffResult != nil {
		diffSummary = diffResult.Summary()
		attachments.DiffPage = d.renderDiff(result, diffResult)
	}

	notes := monitor.AnalyzeRobots(change.NewContent).Notes()
	d.deps.Queue.Enqueue(d.deps.Composer.Changed(result.Site, change, diffSummary, notes, attachments))
}

func (d *ReportDispatcher) dispatchFirstObservation(result models.CheckResult, first models.FirstObservation, collector *common.ErrorCollector) {
	collector.Add(d.siteLog(result, "First check completed; robots.txt recorded."))
	collector.Add(d.runLog(fmt.Sprintf("%s: first check completed.", result.Site.URL)))

	var attachments []string
	path, err := d.deps.Snapshots.WriteContent(result.SiteDir, "first", first.Content, result.CheckedAt)
	if err != nil {
		collector.AddWithContext(err, "snapshot of "+result.Site.URL)
	} else {
		attachments = append(attachments, path)
	}

	notes := monitor.AnalyzeRobots(first.Content).Notes()
	d.deps.Queue.Enqueue(d.deps.Composer.FirstObservation(result.Site, first.Content, notes, attachments))
}

func (d *ReportDispatcher) dispatchCheckError(result models.CheckResult, checkErr models.CheckError, collector *common.ErrorCollector) {
	if result.HasStorage() {
		collector.Add(d.siteLog(result, "Check failed: "+checkErr.Message))
	}
	collector.Add(d.runLog(fmt.Sprintf("%s: check failed (%s error): %s", result.Site.URL, checkErr.Class, checkErr.Message)))

	d.deps.Queue.Enqueue(d.deps.Composer.CheckError(result.Site, checkErr))
}

// diff returns nil when diffing is disabled or fails; a missing diff never blocks the report.
func (d *ReportDispatcher) diff(change models.Changed) *differ.DiffResult {
	if d.deps.Differ == nil {
		return nil
	}
	diffResult, err := d.deps.Differ.Diff(change.OldContent, change.NewContent)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Skipping diff")
		return nil
	}
	return diffResult
}

func (d *ReportDispatcher) renderDiff(result models.CheckResult, diffResult *differ.DiffResult) string {
	if d.deps.Renderer == nil {
		return ""
	}

	html, err := d.deps.Renderer.Render(DiffPage{
		SiteName:    result.Site.Name,
		SiteURL:     result.Site.URL,
		GeneratedAt: result.CheckedAt,
		Diff:        diffResult,
	})
	if err != nil {
		d.logger.Warn().Err(err).Str("url", result.Site.URL).Msg("Failed to render diff")
		return ""
	}

	path, err := d.deps.Snapshots.WriteDiff(result.SiteDir, "diff", html, result.CheckedAt)
	if err != nil {
		d.logger.Warn().Err(err).Str("url", result.Site.URL).Msg("Failed to save rendered diff")
		return ""
	}
	return path
}

func (d *ReportDispatcher) siteLog(result models.CheckResult, message string) error {
	if err := d.deps.SiteLog.Log(result.SiteDir, message); err != nil {
		return common.WrapError(err, "site log of "+result.Site.URL)
	}
	return nil
}

func (d *ReportDispatcher) runLog(message string) error {
	if d.deps.RunLog == nil {
		return nil
	}
	return d.deps.RunLog.Log(message)
}
