package models

import "github.com/google/uuid"

// Card is a single playing card. Identity is the uuid; Value is the
// scoring value for the configured variant (red kings are worth 0).
// Cards are never modified after creation.
type Card struct {
	ID    uuid.UUID `json:"id"`
	Suit  string    `json:"suit"`
	Rank  string    `json:"rank"`
	Value int       `json:"value"`
}

// Matches reports whether two cards share a rank, the only equivalence
// the reaction window cares about.
func (c *Card) Matches(other *Card) bool {
	return c != nil && other != nil && c.Rank == other.Rank
}
