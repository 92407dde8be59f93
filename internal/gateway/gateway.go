// Package gateway translates store-level intents into operations against
// the remote relational store and delivers its change notifications. It
// is the only place remote row shapes are parsed.
package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"boardsync/internal/model"
)

// CardUpdate is one entry of a batch reorder. ColumnID is set only when
// the card moved between columns.
type CardUpdate struct {
	CardID   uuid.UUID
	Order    int
	ColumnID *uuid.UUID
}

// CardPatch is a partial card update; nil fields are left untouched.
type CardPatch struct {
	Title       *string
	Description *string
	IsDone      *bool
}

// Unsubscribe detaches a change-feed subscription.
type Unsubscribe func()

// Gateway abstracts CRUD and batch-reorder operations plus the realtime
// change feed. Implementations return typed entities, never raw rows.
type Gateway interface {
	// FetchBoard returns every column owned by ownerID with its cards in
	// card_order. An owner with no columns gets an empty board, not an
	// error. A nil owner fails with ErrNotAuthenticated.
	FetchBoard(ctx context.Context, ownerID uuid.UUID) (model.Board, error)

	CreateColumn(ctx context.Context, title string, ownerID uuid.UUID) error
	RenameColumn(ctx context.Context, columnID uuid.UUID, title string) error

	// DeleteColumn removes the column's cards first, then the column.
	// If card deletion fails the column deletion is not attempted.
	DeleteColumn(ctx context.Context, columnID uuid.UUID) error

	CreateCard(ctx context.Context, columnID uuid.UUID, title, description string, order int) error
	UpdateCard(ctx context.Context, cardID uuid.UUID, patch CardPatch) error
	DeleteCard(ctx context.Context, cardID uuid.UUID) error

	// BatchReorder applies updates strictly in sequence. The first
	// failure aborts the rest and surfaces as a PartialBatchError;
	// prior updates stay committed.
	BatchReorder(ctx context.Context, updates []CardUpdate) error

	// SubscribeToChanges invokes onChange whenever any card or column
	// changes remotely. Events carry no payload; the caller refetches.
	SubscribeToChanges(onChange func()) (Unsubscribe, error)
}

// RemoteError wraps a failed remote operation with a human-readable
// description of what was being attempted.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// PartialBatchError reports a batch reorder that stopped mid-sequence.
// Applied counts the updates that were already committed remotely.
type PartialBatchError struct {
	Applied int
	Err     error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("batch reorder aborted after %d update(s): %v", e.Applied, e.Err)
}

func (e *PartialBatchError) Unwrap() error {
	return e.Err
}
