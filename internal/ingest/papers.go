package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/pkg/errors"
)

// ColumnSpec names the source columns of one Paper field: a single column,
// an explicit list, or a pattern using * (any run) and ## (one or two
// digits), e.g. "author_##" or "*_mail". In JSON it round-trips as either a
// string or an array of strings.
type ColumnSpec []string

func (s ColumnSpec) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]string(s))
}

func (s *ColumnSpec) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*s = nil
		} else {
			*s = ColumnSpec{single}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = ColumnSpec(list)
	return nil
}

// Resolve expands the spec against the actual file columns. Explicit lists
// keep their order (dropping absentees); patterns match case-insensitively
// and return the hits sorted.
func (s ColumnSpec) Resolve(columns []string) []string {
	if len(s) == 0 {
		return nil
	}
	if len(s) > 1 {
		var out []string
		for _, want := range s {
			for _, c := range columns {
				if c == want {
					out = append(out, c)
					break
				}
			}
		}
		return out
	}

	spec := s[0]
	if strings.ContainsAny(spec, "*#") {
		expr := regexp.QuoteMeta(spec)
		expr = strings.ReplaceAll(expr, `##`, `\d{1,2}`)
		expr = strings.ReplaceAll(expr, `\*`, `.*`)
		pat, err := regexp.Compile("(?i)^" + expr + "$")
		if err != nil {
			return nil
		}
		var out []string
		for _, c := range columns {
			if pat.MatchString(c) {
				out = append(out, c)
			}
		}
		sort.Strings(out)
		return out
	}

	for _, c := range columns {
		if c == spec {
			return []string{spec}
		}
	}
	return nil
}

// ColumnMapping describes how the paper file's columns map to Paper fields.
type ColumnMapping struct {
	PaperID            string     `json:"paper_id"`
	Title              string     `json:"title"`
	AuthorNames        ColumnSpec `json:"author_names"`
	AuthorAffiliations ColumnSpec `json:"author_affiliations"`
	AuthorDepartments  ColumnSpec `json:"author_departments"`
	AuthorEmails       ColumnSpec `json:"author_emails"`
	CorrEmail          string     `json:"corr_email"`
	PrefColumns        ColumnSpec `json:"pref_columns"`
	Comment            string     `json:"comment"`
	Separator          string     `json:"separator"`
	Encoding           string     `json:"encoding"`
}

// DefaultColumnMapping matches the common submission-system export shape.
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		PaperID:            "paper_id",
		Title:              "title",
		AuthorNames:        ColumnSpec{"f_name"},
		AuthorAffiliations: ColumnSpec{"f_affiliation"},
		AuthorEmails:       ColumnSpec{"f_email"},
		CorrEmail:          "corr_email",
		PrefColumns:        ColumnSpec{"pref_one"},
		Comment:            "comments",
		Separator:          ";",
		Encoding:           "utf-8",
	}
}

func (m ColumnMapping) separator() rune {
	if m.Separator == "" {
		return ';'
	}
	return []rune(m.Separator)[0]
}

// SaveColumnMapping persists a mapping as indented JSON.
func SaveColumnMapping(m ColumnMapping, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "encode column mapping")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "write column mapping")
	}
	return nil
}

// LoadColumnMapping reads a mapping saved by SaveColumnMapping, filling
// absent fields with defaults.
func LoadColumnMapping(path string) (ColumnMapping, error) {
	m := DefaultColumnMapping()
	data, err := os.ReadFile(path)
	if err != nil {
		return m, errors.Wrap(err, errors.ErrNotFound, "read column mapping")
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, errors.Wrap(err, errors.ErrValidation, "decode column mapping")
	}
	return m, nil
}

// LoadPapers reads the paper file through the column mapping. Author
// columns are zipped index-wise, NULL placeholders are scrubbed and textual
// fields get mojibake repair.
func LoadPapers(path string, mapping ColumnMapping, logger *zap.Logger) ([]models.Paper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t, err := readTable(path, mapping.separator(), mapping.Encoding)
	if err != nil {
		return nil, err
	}

	nameCols := mapping.AuthorNames.Resolve(t.columns)
	affCols := mapping.AuthorAffiliations.Resolve(t.columns)
	depCols := mapping.AuthorDepartments.Resolve(t.columns)
	emailCols := mapping.AuthorEmails.Resolve(t.columns)
	prefCols := mapping.PrefColumns.Resolve(t.columns)

	papers := make([]models.Paper, 0, len(t.rows))
	for _, row := range t.rows {
		var authors []models.Author
		for i, nameCol := range nameCols {
			name := cell(row, nameCol)
			if name == "" {
				continue
			}
			a := models.Author{Name: RepairMojibake(name)}
			if i < len(affCols) {
				a.Affiliation = RepairMojibake(cell(row, affCols[i]))
			}
			if i < len(depCols) {
				a.Department = RepairMojibake(cell(row, depCols[i]))
			}
			if i < len(emailCols) {
				a.Email = cell(row, emailCols[i])
			}
			authors = append(authors, a)
		}

		var prefs []int
		for _, pc := range prefCols {
			if v := cell(row, pc); v != "" {
				if n, err := strconv.Atoi(v); err == nil {
					prefs = append(prefs, n)
				}
			}
		}

		pid, err := strconv.Atoi(cell(row, mapping.PaperID))
		if err != nil {
			logger.Warn("paper row without a numeric id skipped",
				zap.String("value", row[mapping.PaperID]))
			continue
		}

		papers = append(papers, models.Paper{
			PaperID:   pid,
			Title:     RepairMojibake(cell(row, mapping.Title)),
			Authors:   authors,
			CorrEmail: cell(row, mapping.CorrEmail),
			PrefIDs:   prefs,
			Comment:   RepairMojibake(cell(row, mapping.Comment)),
		})
	}

	logger.Info("papers loaded", zap.String("path", path), zap.Int("count", len(papers)))
	return papers, nil
}

// GenerateDefaultTopics yields n placeholder topics.
func GenerateDefaultTopics(n int) []models.Topic {
	out := make([]models.Topic, n)
	for i := range out {
		out[i] = models.Topic{TopicID: i + 1, Name: fmt.Sprintf("Topic %d", i+1)}
	}
	return out
}
