// Package genres manages the genre catalog.
package genres

import (
	"time"

	"github.com/google/uuid"
)

// Genre is a catalog tag attached to animes.
type Genre struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
