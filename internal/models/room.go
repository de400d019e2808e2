package models

import (
	"time"

	"github.com/lib/pq"
)

// RoomKind enumerates the supported room categories.
type RoomKind string

const (
	RoomKindClass   RoomKind = "CLASS"
	RoomKindLab     RoomKind = "LAB"
	RoomKindDrawing RoomKind = "DRAWING"
)

// Room represents a teaching venue.
type Room struct {
	ID        string         `db:"id" json:"id"`
	Code      string         `db:"code" json:"code"`
	Capacity  int            `db:"capacity" json:"capacity"`
	Kind      RoomKind       `db:"kind" json:"kind"`
	Features  pq.StringArray `db:"features" json:"features"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// HasFeatures reports whether the room carries every requested feature tag.
func (r *Room) HasFeatures(required []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(r.Features))
	for _, f := range r.Features {
		have[f] = struct{}{}
	}
	for _, f := range required {
		if _, ok := have[f]; !ok {
			return false
		}
	}
	return true
}
