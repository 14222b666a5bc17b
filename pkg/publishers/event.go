package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/catalog-harvester/internal/domain"
)

// Event is the payload published downstream for a new or changed product.
type Event struct {
	EventID     string         `json:"event_id"`
	SearchID    string         `json:"search_id"`
	SearchName  string         `json:"search_name"`
	Product     domain.Product `json:"product"`
	CollectedAt time.Time      `json:"collected_at"`
}

// NewEvent constructs an Event for a product found by the given saved search.
func NewEvent(searchID, searchName string, product domain.Product) Event {
	return Event{
		EventID:     uuid.NewString(),
		SearchID:    searchID,
		SearchName:  searchName,
		Product:     product,
		CollectedAt: time.Now().UTC(),
	}
}
