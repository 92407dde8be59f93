// Package drag turns drag-gesture results into a new board arrangement
// and the minimal list of persistence updates. The engine is fed by an
// external pointer-tracking collaborator; it never does hit-testing
// itself.
package drag

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"boardsync/internal/gateway"
	"boardsync/internal/model"
)

// Board is the slice of the store the engine needs: the live snapshot,
// the raw optimistic setter and the reorder persistence entrypoint.
type Board interface {
	Columns() []model.Column
	SetColumns(columns []model.Column)
	ApplyReorder(ctx context.Context, updates []gateway.CardUpdate)
}

// Target describes where a card was dropped or is hovering. CardID is
// nil when the target is a column body (append at end); otherwise the
// card is inserted at the target card's position.
type Target struct {
	ColumnID uuid.UUID
	CardID   uuid.UUID
}

type state int

const (
	stateIdle state = iota
	stateDragging
)

// Engine runs the single-pointer drag state machine:
// Idle -> Dragging -> [hovering] -> dropped or cancelled -> Idle.
// A new drag cannot start before the prior one returns to Idle.
type Engine struct {
	board Board

	mu             sync.Mutex
	state          state
	activeCardID   uuid.UUID
	sourceColumnID uuid.UUID
	previewed      bool
	snapshot       []model.Column
}

func NewEngine(board Board) *Engine {
	return &Engine{board: board}
}

// Start begins a drag and snapshots the board for cancellation. Returns
// false when a drag is already in progress or the card is unknown.
func (e *Engine) Start(cardID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateIdle {
		return false
	}

	columns := e.board.Columns()
	srcIdx, _ := locateCard(columns, cardID)
	if srcIdx < 0 {
		return false
	}

	e.state = stateDragging
	e.activeCardID = cardID
	e.sourceColumnID = columns[srcIdx].ID
	e.snapshot = columns
	return true
}

// Over gives live feedback while hovering another column: the dragged
// card is provisionally appended to the hovered column. The preview is
// re-derived from the live board on every call, never accumulated, and
// is superseded by End.
func (e *Engine) Over(target Target) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateDragging {
		return
	}

	columns := e.board.Columns()
	liveIdx, cardIdx := locateCard(columns, e.activeCardID)
	dstIdx := model.ColumnIndex(columns, target.ColumnID)
	if liveIdx < 0 || dstIdx < 0 || liveIdx == dstIdx {
		return
	}

	next, _ := moveAcross(columns, liveIdx, cardIdx, dstIdx, len(columns[dstIdx].Cards))
	e.board.SetColumns(next)
	e.previewed = true
}

// Cancel aborts the drag and restores the pre-drag snapshot.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateDragging {
		return
	}
	e.board.SetColumns(e.snapshot)
	e.reset()
}

// End finishes the drag. A nil target restores the pre-drag snapshot
// with no persistence calls. Otherwise the new arrangement is applied
// optimistically and the order/ownership updates for every affected
// column are dispatched for persistence. The gesture-start column is
// always part of the affected set: a hover preview may have already
// detached the card from it locally without anything being persisted.
func (e *Engine) End(ctx context.Context, target *Target) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateDragging {
		return
	}
	defer e.reset()

	if target == nil {
		e.board.SetColumns(e.snapshot)
		return
	}

	columns := e.board.Columns()
	liveIdx, cardIdx := locateCard(columns, e.activeCardID)
	dstIdx := model.ColumnIndex(columns, target.ColumnID)
	origIdx := model.ColumnIndex(columns, e.sourceColumnID)
	if liveIdx < 0 || dstIdx < 0 || origIdx < 0 {
		e.board.SetColumns(e.snapshot)
		return
	}

	next, changed, ok := arrange(columns, liveIdx, cardIdx, dstIdx, *target)
	if !ok {
		e.board.SetColumns(e.snapshot)
		return
	}
	if !changed {
		if !e.previewed && origIdx == dstIdx {
			// Dropping a card onto itself with no preview in between:
			// nothing moved, nothing to sync.
			return
		}
		// A hover preview already rearranged the live state, possibly
		// including the gesture-start column itself; the arrangement
		// stands, but it was never persisted.
		next = columns
	} else {
		e.board.SetColumns(next)
	}

	var movedColumnID *uuid.UUID
	if dstIdx != origIdx {
		id := next[dstIdx].ID
		movedColumnID = &id
	}

	affected := dedupIndices(origIdx, liveIdx, dstIdx)
	e.board.ApplyReorder(ctx, buildUpdates(next, affected, e.activeCardID, movedColumnID))
}

func (e *Engine) reset() {
	e.state = stateIdle
	e.activeCardID = uuid.Nil
	e.sourceColumnID = uuid.Nil
	e.previewed = false
	e.snapshot = nil
}

// arrange computes the post-drop column slice. changed is false when the
// drop leaves the live arrangement as it is; ok is false when the target
// card cannot be found.
func arrange(columns []model.Column, liveIdx, cardIdx, dstIdx int, target Target) (next []model.Column, changed, ok bool) {
	if liveIdx == dstIdx {
		col := columns[liveIdx]
		to := len(col.Cards)
		if target.CardID != uuid.Nil {
			if to = col.CardIndex(target.CardID); to < 0 {
				return nil, false, false
			}
		}
		// List-move semantics: the destination index addresses the
		// post-removal list, so the last valid slot is len-1.
		if to > len(col.Cards)-1 {
			to = len(col.Cards) - 1
		}
		if cardIdx == to {
			return columns, false, true
		}

		next = make([]model.Column, len(columns))
		copy(next, columns)
		next[liveIdx].Cards = arrayMove(col.Cards, cardIdx, to)
		reindex(next[liveIdx].Cards)
		return next, true, true
	}

	insertAt := len(columns[dstIdx].Cards)
	if target.CardID != uuid.Nil {
		if insertAt = columns[dstIdx].CardIndex(target.CardID); insertAt < 0 {
			return nil, false, false
		}
	}
	next, _ = moveAcross(columns, liveIdx, cardIdx, dstIdx, insertAt)
	return next, true, true
}

// moveAcross rebuilds only the two affected columns: the card leaves its
// live column and lands at insertAt in the destination, with both
// columns' orders re-densified.
func moveAcross(columns []model.Column, srcIdx, cardIdx, dstIdx, insertAt int) ([]model.Column, model.Card) {
	moved := columns[srcIdx].Cards[cardIdx]
	moved.ColumnID = columns[dstIdx].ID

	next := make([]model.Column, len(columns))
	copy(next, columns)
	next[srcIdx].Cards = removeAt(columns[srcIdx].Cards, cardIdx)
	next[dstIdx].Cards = insertCard(columns[dstIdx].Cards, insertAt, moved)
	reindex(next[srcIdx].Cards)
	reindex(next[dstIdx].Cards)
	return next, moved
}

// locateCard finds the column and card index of a card in the live
// board. The live position is authoritative: a hover preview may have
// already moved the card away from its gesture-start column.
func locateCard(columns []model.Column, cardID uuid.UUID) (colIdx, cardIdx int) {
	for i := range columns {
		if j := columns[i].CardIndex(cardID); j >= 0 {
			return i, j
		}
	}
	return -1, -1
}

// arrayMove returns a new slice with the element at from removed and
// reinserted at to, where to indexes the post-removal list.
func arrayMove(cards []model.Card, from, to int) []model.Card {
	out := make([]model.Card, 0, len(cards))
	out = append(out, cards...)
	moved := out[from]
	out = append(out[:from], out[from+1:]...)

	out = append(out, model.Card{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}

func removeAt(cards []model.Card, i int) []model.Card {
	out := make([]model.Card, 0, len(cards)-1)
	out = append(out, cards[:i]...)
	out = append(out, cards[i+1:]...)
	return out
}

func insertCard(cards []model.Card, i int, card model.Card) []model.Card {
	out := make([]model.Card, 0, len(cards)+1)
	out = append(out, cards[:i]...)
	out = append(out, card)
	out = append(out, cards[i:]...)
	return out
}

func reindex(cards []model.Card) {
	for i := range cards {
		cards[i].Order = i
	}
}

func dedupIndices(indices ...int) []int {
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		dup := false
		for _, seen := range out {
			if seen == idx {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, idx)
		}
	}
	return out
}

// buildUpdates emits one update per card in the affected columns. Only
// the moved card carries a ColumnID, and only when its column actually
// changed; each card id appears at most once.
func buildUpdates(columns []model.Column, affected []int, movedID uuid.UUID, movedColumnID *uuid.UUID) []gateway.CardUpdate {
	seen := make(map[uuid.UUID]bool)
	var updates []gateway.CardUpdate

	for _, idx := range affected {
		for _, card := range columns[idx].Cards {
			if seen[card.ID] {
				continue
			}
			seen[card.ID] = true
			u := gateway.CardUpdate{CardID: card.ID, Order: card.Order}
			if card.ID == movedID && movedColumnID != nil {
				u.ColumnID = movedColumnID
			}
			updates = append(updates, u)
		}
	}
	return updates
}
