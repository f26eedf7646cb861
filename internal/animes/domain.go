// Package animes manages the anime catalog.
package animes

import (
	"time"

	"github.com/google/uuid"
)

// Anime statuses.
const (
	StatusAnnounced = "announced"
	StatusAiring    = "airing"
	StatusFinished  = "finished"
)

// GenreRef is a genre attached to an anime.
type GenreRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Anime is a catalog entry. Deleted entries are soft-deleted and never
// served.
type Anime struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Synopsis    *string    `json:"synopsis,omitempty"`
	Status      *string    `json:"status,omitempty"`
	ReleaseYear *int       `json:"release_year,omitempty"`
	Genres      []GenreRef `json:"genres"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListFilter narrows and orders anime listings.
type ListFilter struct {
	Search  string
	Status  string
	SortBy  string // title | release_year | created_at
	SortDir string // asc | desc
	Page    int
	PerPage int
}
