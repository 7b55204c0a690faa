package sitesource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/aleister1102/robotswatch/internal/urlhandler"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const expectedColumns = 3

// LoadResult is the outcome of reading a site list.
// RowErrors describe rows that were skipped; they never stop the enumeration.
type LoadResult struct {
	Sites     []models.Site
	RowErrors []string
}

// CSVSiteSource reads "url,name,email" rows from a CSV file.
// A first row of "url,name,email" is treated as a header. Lines starting with '#' are ignored.
type CSVSiteSource struct {
	path     string
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewCSVSiteSource creates a CSVSiteSource for the file at path.
func NewCSVSiteSource(path string, logger zerolog.Logger) *CSVSiteSource {
	return &CSVSiteSource{
		path:     path,
		validate: validator.New(),
		logger:   logger.With().Str("component", "CSVSiteSource").Str("path", path).Logger(),
	}
}

// Path returns the file the sites are read from.
func (s *CSVSiteSource) Path() string {
	return s.path
}

// Load reads every row of the file. An error is returned only when the file itself cannot be read.
func (s *CSVSiteSource) Load() (LoadResult, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return LoadResult{}, common.WrapErrorf(err, "failed to open site list %s", s.path)
	}
	defer file.Close()

	result, err := s.read(file)
	if err != nil {
		return LoadResult{}, common.WrapErrorf(err, "failed to read site list %s", s.path)
	}

	s.logger.Info().Int("sites", len(result.Sites)).Int("skipped", len(result.RowErrors)).Msg("Site list loaded")
	return result, nil
}

func (s *CSVSiteSource) read(r io.Reader) (LoadResult, error) {
	var result LoadResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.addRowError(s.logger, parseErr.Line, err.Error())
				first = false
				continue
			}
			return LoadResult{}, err
		}

		line, _ := reader.FieldPos(0)
		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}
		if isBlank(record) {
			continue
		}

		site, err := s.parseRecord(record)
		if err != nil {
			result.addRowError(s.logger, line, err.Error())
			continue
		}
		result.Sites = append(result.Sites, site)
	}

	return result, nil
}

func (s *CSVSiteSource) parseRecord(record []string) (models.Site, error) {
	if len(record) != expectedColumns {
		return models.Site{}, fmt.Errorf("expected %d columns (url,name,email), got %d", expectedColumns, len(record))
	}

	site := models.Site{
		URL:   strings.TrimSpace(record[0]),
		Name:  strings.TrimSpace(record[1]),
		Email: urlhandler.NormalizeEmail(record[2]),
	}

	if err := s.validate.Struct(site); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			fe := validationErrs[0]
			return models.Site{}, fmt.Errorf("field %s failed %q check (value %q)", strings.ToLower(fe.Field()), fe.Tag(), fe.Value())
		}
		return models.Site{}, err
	}
	return site, nil
}

func (r *LoadResult) addRowError(logger zerolog.Logger, line int, reason string) {
	msg := fmt.Sprintf("Site list row %d skipped: %s", line, reason)
	logger.Error().Int("line", line).Str("reason", reason).Msg("Skipping malformed site row")
	r.RowErrors = append(r.RowErrors, msg)
}

func isHeader(record []string) bool {
	if len(record) != expectedColumns {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(record[0]), "url") &&
		strings.EqualFold(strings.TrimSpace(record[1]), "name") &&
		strings.EqualFold(strings.TrimSpace(record[2]), "email")
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
