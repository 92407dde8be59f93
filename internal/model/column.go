package model

import (
	"github.com/google/uuid"
)

// Column holds its cards in display order. OwnerID is enforced remotely;
// the client never sees another owner's columns.
type Column struct {
	ID      uuid.UUID
	Title   string
	OwnerID uuid.UUID
	Cards   []Card
}

// CardIndex returns the index of the card with the given id, or -1.
func (c *Column) CardIndex(cardID uuid.UUID) int {
	for i := range c.Cards {
		if c.Cards[i].ID == cardID {
			return i
		}
	}
	return -1
}

// Clone returns a column whose card slice is independent of the receiver's.
func (c Column) Clone() Column {
	out := c
	out.Cards = make([]Card, len(c.Cards))
	copy(out.Cards, c.Cards)
	return out
}
