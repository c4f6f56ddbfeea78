package ingest

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/pkg/errors"
)

// TopicFileOptions names the topic file columns; zero values fall back to
// the conventional header names.
type TopicFileOptions struct {
	IDColumn   string
	NameColumn string
	Separator  rune
}

func (o TopicFileOptions) withDefaults() TopicFileOptions {
	if o.IDColumn == "" {
		o.IDColumn = "pref_id"
	}
	if o.NameColumn == "" {
		o.NameColumn = "topic name"
	}
	if o.Separator == 0 {
		o.Separator = ';'
	}
	return o
}

// LoadTopics reads the topic list.
func LoadTopics(path string, opts TopicFileOptions, logger *zap.Logger) ([]models.Topic, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	t, err := readTable(path, opts.Separator, "utf-8")
	if err != nil {
		return nil, err
	}
	if !t.has(opts.IDColumn) || !t.has(opts.NameColumn) {
		return nil, errors.New(errors.ErrValidation,
			"topic file is missing the "+opts.IDColumn+" or "+opts.NameColumn+" column")
	}

	topics := make([]models.Topic, 0, len(t.rows))
	for _, row := range t.rows {
		tid, err := strconv.Atoi(cell(row, opts.IDColumn))
		if err != nil {
			logger.Warn("topic row without a numeric id skipped",
				zap.String("value", row[opts.IDColumn]))
			continue
		}
		topics = append(topics, models.Topic{TopicID: tid, Name: cell(row, opts.NameColumn)})
	}

	logger.Info("topics loaded", zap.String("path", path), zap.Int("count", len(topics)))
	return topics, nil
}
