package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Board is the full set of columns for one owner.
type Board struct {
	Columns []Column
}

// CloneColumns deep-copies a column slice so optimistic mutations never
// alias the canonical board.
func CloneColumns(columns []Column) []Column {
	out := make([]Column, len(columns))
	for i := range columns {
		out[i] = columns[i].Clone()
	}
	return out
}

// ColumnIndex returns the index of the column with the given id, or -1.
func ColumnIndex(columns []Column, columnID uuid.UUID) int {
	for i := range columns {
		if columns[i].ID == columnID {
			return i
		}
	}
	return -1
}

// CheckInvariants verifies that every card's ColumnID matches its
// containing column and that each column's orders form a contiguous
// 0..n-1 sequence. Used by tests and assertions only; runtime code is
// written so the invariant never lapses across an observable boundary.
func CheckInvariants(columns []Column) error {
	seen := make(map[uuid.UUID]uuid.UUID)
	for i := range columns {
		col := &columns[i]
		for j := range col.Cards {
			card := &col.Cards[j]
			if card.ColumnID != col.ID {
				return fmt.Errorf("card %s has column_id %s but lives in column %s", card.ID, card.ColumnID, col.ID)
			}
			if card.Order != j {
				return fmt.Errorf("card %s in column %s has order %d at index %d", card.ID, col.ID, card.Order, j)
			}
			if prev, ok := seen[card.ID]; ok {
				return fmt.Errorf("card %s appears in both column %s and column %s", card.ID, prev, col.ID)
			}
			seen[card.ID] = col.ID
		}
	}
	return nil
}
