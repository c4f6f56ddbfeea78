package ingest

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/confplan/confplan/internal/models"
	"github.com/confplan/confplan/pkg/errors"
)

// RoomFileOptions names the room file columns; zero values fall back to
// the conventional header names.
type RoomFileOptions struct {
	IDColumn       string
	NameColumn     string
	CapacityColumn string
	Separator      rune
}

func (o RoomFileOptions) withDefaults() RoomFileOptions {
	if o.IDColumn == "" {
		o.IDColumn = "room_id"
	}
	if o.NameColumn == "" {
		o.NameColumn = "room_name"
	}
	if o.CapacityColumn == "" {
		o.CapacityColumn = "capacity"
	}
	if o.Separator == 0 {
		o.Separator = ';'
	}
	return o
}

// LoadRooms reads the room list. A missing id column numbers rooms by
// position, a missing capacity column leaves capacities at zero.
func LoadRooms(path string, opts RoomFileOptions, logger *zap.Logger) ([]models.Room, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	t, err := readTable(path, opts.Separator, "utf-8")
	if err != nil {
		return nil, err
	}
	if !t.has(opts.NameColumn) {
		return nil, errors.New(errors.ErrValidation,
			"room file is missing the "+opts.NameColumn+" column")
	}
	hasID := t.has(opts.IDColumn)
	hasCap := t.has(opts.CapacityColumn)

	rooms := make([]models.Room, 0, len(t.rows))
	for idx, row := range t.rows {
		rid := idx + 1
		if hasID {
			if n, err := strconv.Atoi(cell(row, opts.IDColumn)); err == nil {
				rid = n
			}
		}
		cap := 0
		if hasCap {
			if n, err := strconv.Atoi(cell(row, opts.CapacityColumn)); err == nil {
				cap = n
			}
		}
		rooms = append(rooms, models.Room{
			RoomID:   rid,
			Name:     RepairMojibake(cell(row, opts.NameColumn)),
			Capacity: cap,
		})
	}

	logger.Info("rooms loaded", zap.String("path", path), zap.Int("count", len(rooms)))
	return rooms, nil
}

// GenerateDefaultRooms yields n placeholder rooms.
func GenerateDefaultRooms(n int) []models.Room {
	out := make([]models.Room, n)
	for i := range out {
		out[i] = models.Room{RoomID: i + 1, Name: fmt.Sprintf("Room %d", i+1)}
	}
	return out
}
