package experiment

import (
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/relevex/internal/domain/experiment"
)

// EventCategory is the analytics category of AB test search events.
const EventCategory = "search"

// NewEvent builds the analytics record of a search served under asg.
func NewEvent(asg experiment.Assignment, query string, resultCount int, userID, sessionID string, now time.Time) experiment.Event {
	return experiment.Event{
		ID:            uuid.NewString(),
		Event:         asg.EventName,
		EventCategory: EventCategory,
		EventLabel:    query,
		TestID:        asg.TestID,
		VariantID:     asg.VariantID,
		UserID:        userID,
		SessionID:     sessionID,
		ResultCount:   resultCount,
		Timestamp:     now.UTC(),
	}
}
