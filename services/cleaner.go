package services

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"dormhop/api"
)

// Cleaner normalises room forms before they are sent to the server.
type Cleaner struct {
	logger *zap.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *zap.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean returns a normalised copy of req: text fields trimmed with inner
// whitespace collapsed, blank and duplicate amenities dropped, and a blank
// description sent as null.
func (c *Cleaner) Clean(req api.RoomRequest) api.RoomRequest {
	out := api.RoomRequest{
		Dorm:       normaliseText(req.Dorm),
		RoomNumber: normaliseText(req.RoomNumber),
		Occupancy:  req.Occupancy,
		Amenities:  c.cleanAmenities(req.Amenities),
	}
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			out.Description = &d
		}
	}
	return out
}

// cleanAmenities keeps the first spelling of each amenity, comparing
// without regard to case.
func (c *Cleaner) cleanAmenities(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		a = normaliseText(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, dup := seen[key]; dup {
			c.logger.Debug("Duplicate amenity skipped", zap.String("amenity", a))
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	if dropped := len(raw) - len(out); dropped > 0 {
		c.logger.Info("Cleaned amenities",
			zap.Int("in", len(raw)),
			zap.Int("out", len(out)),
			zap.Int("dropped", dropped),
		)
	}
	return out
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}
