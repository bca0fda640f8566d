package syncer

import (
	"time"

	"segue/internal/ratings"
)

// Event types published to connected surfaces.
const (
	// EventRatingUpdate carries a status-tagged rating record for the
	// release a surface is showing.
	EventRatingUpdate = "rating.update"
	// EventPrimarySync asks the primary surface to follow the secondary
	// surface to a release.
	EventPrimarySync = "primary.sync"
	// EventSecondaryNavigate asks the secondary surface to load a URL.
	EventSecondaryNavigate = "secondary.navigate"
)

// Event is the broadcast payload sent to all connected surfaces.
type Event struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Key    string          `json:"key"`
	Artist string          `json:"artist,omitempty"`
	Album  string          `json:"album,omitempty"`
	Record *ratings.Record `json:"record,omitempty"`
	Target string          `json:"target,omitempty"`
	Time   time.Time       `json:"time"`
}

// Broadcaster fans events out to connected surfaces.
type Broadcaster interface {
	Publish(event Event)
}

// BroadcasterFunc adapts a function to the Broadcaster interface.
type BroadcasterFunc func(event Event)

func (f BroadcasterFunc) Publish(event Event) { f(event) }
