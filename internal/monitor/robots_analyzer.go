package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsAnalysis is what the report stage says about a fetched robots.txt beyond "it changed".
type RobotsAnalysis struct {
	Sitemaps          []string
	BlocksAllCrawlers bool
	CrawlDelay        time.Duration
	ParseError        error
}

// AnalyzeRobots parses content as robots.txt. A parse failure is recorded, not returned.
func AnalyzeRobots(content string) RobotsAnalysis {
	data, err := robotstxt.FromString(content)
	if err != nil {
		return RobotsAnalysis{ParseError: err}
	}

	analysis := RobotsAnalysis{
		Sitemaps:          data.Sitemaps,
		BlocksAllCrawlers: !data.TestAgent("/", "*"),
	}
	if group := data.FindGroup("*"); group != nil {
		analysis.CrawlDelay = group.CrawlDelay
	}
	return analysis
}

// Notes renders the analysis as short sentences for a report body. Nothing noteworthy yields nil.
func (a RobotsAnalysis) Notes() []string {
	if a.ParseError != nil {
		return []string{fmt.Sprintf("The file could not be parsed as robots.txt: %v.", a.ParseError)}
	}

	var notes []string
	if a.BlocksAllCrawlers {
		notes = append(notes, "WARNING: this file blocks all crawlers from the whole site (Disallow: / for User-agent: *).")
	}
	if a.CrawlDelay > 0 {
		notes = append(notes, fmt.Sprintf("Crawl delay for all user agents: %s.", a.CrawlDelay))
	}
	if len(a.Sitemaps) > 0 {
		notes = append(notes, "Sitemaps listed: "+strings.Join(a.Sitemaps, ", ")+".")
	}
	return notes
}
