package ingest

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/pkg/errors"
)

// departureOpenEnd marks a chair present for the whole conference when the
// file carries no departure column.
const departureOpenEnd = 999

// LoadChairs reads the chair list. Two layouts are recognized: the simple
// one (chair_id;chair_name) and the extended one with lastname, firstname,
// email, arrival and departure columns.
func LoadChairs(path string, sep rune, logger *zap.Logger) ([]models.Chair, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sep == 0 {
		sep = ';'
	}

	t, err := readTable(path, sep, "utf-8")
	if err != nil {
		return nil, err
	}

	hasLastname := t.has("lastname")
	hasName := t.has("chair_name")
	hasID := t.has("chair_id")
	hasEmail := t.has("email")
	hasArrival := t.has("arrival")
	hasDeparture := t.has("departure")

	chairs := make([]models.Chair, 0, len(t.rows))
	for idx, row := range t.rows {
		cid := idx + 1
		if hasID {
			if n, err := strconv.Atoi(cell(row, "chair_id")); err == nil {
				cid = n
			}
		}

		var name string
		switch {
		case hasLastname:
			first := RepairMojibake(cell(row, "firstname"))
			last := RepairMojibake(cell(row, "lastname"))
			name = strings.TrimSpace(first + " " + last)
		case hasName:
			name = RepairMojibake(cell(row, "chair_name"))
		default:
			name = fmt.Sprintf("Chair %d", idx+1)
		}

		arrival, departure := 1, departureOpenEnd
		if hasArrival {
			if n, err := strconv.Atoi(cell(row, "arrival")); err == nil {
				arrival = n
			}
		}
		if hasDeparture {
			if n, err := strconv.Atoi(cell(row, "departure")); err == nil {
				departure = n
			}
		}

		var email string
		if hasEmail {
			email = cell(row, "email")
		}

		chairs = append(chairs, models.Chair{
			ChairID:      cid,
			Name:         name,
			Email:        email,
			ArrivalDay:   arrival,
			DepartureDay: departure,
		})
	}

	logger.Info("chairs loaded", zap.String("path", path), zap.Int("count", len(chairs)))
	return chairs, nil
}

// GenerateDefaultChairs yields n placeholder chairs present every day.
func GenerateDefaultChairs(n int) []models.Chair {
	out := make([]models.Chair, n)
	for i := range out {
		out[i] = models.Chair{
			ChairID:      i + 1,
			Name:         fmt.Sprintf("Chair %d", i+1),
			ArrivalDay:   1,
			DepartureDay: departureOpenEnd,
		}
	}
	return out
}

// LoadConstraintLines reads a plain-text constraint file: one constraint
// per line, blank lines and #-comments skipped.
func LoadConstraintLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrNotFound, "read "+path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "scan "+path)
	}
	return lines, nil
}
