// Package store owns the canonical in-memory board. Every mutation goes
// through a named operation that applies the change locally, mirrors it
// to the remote gateway and marks the echo gate so the client's own
// change-feed reflection does not trigger a redundant refetch.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"boardsync/internal/gateway"
	"boardsync/internal/model"
)

// Identity resolves the current owner. Implemented by session.Session.
type Identity interface {
	CurrentUserID() (uuid.UUID, bool)
}

// Store is the single source of truth for the board. All mutation is
// copy-on-write over the affected columns, so snapshots handed out
// earlier are never changed underneath their holders.
type Store struct {
	gw       gateway.Gateway
	identity Identity
	notifier Notifier
	log      *logrus.Entry
	echo     *echoGate

	mu        sync.RWMutex
	columns   []model.Column
	listeners map[int]func()
	nextID    int
}

type Option func(*Store)

// WithNotifier attaches the presentation layer's notification sink.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger replaces the default logger.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Store) { s.log = log }
}

// WithEchoWindow overrides the echo suppression window.
func WithEchoWindow(window time.Duration) Option {
	return func(s *Store) { s.echo.window = window }
}

// WithClock injects the time source consulted by the echo gate.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.echo.now = now }
}

func New(gw gateway.Gateway, identity Identity, opts ...Option) *Store {
	s := &Store{
		gw:        gw,
		identity:  identity,
		notifier:  NopNotifier{},
		log:       logrus.NewEntry(logrus.StandardLogger()).WithField("component", "store"),
		echo:      &echoGate{window: DefaultEchoWindow, now: time.Now},
		listeners: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Columns returns the current board snapshot. Callers must treat it as
// read-only; the store never mutates a published snapshot in place.
func (s *Store) Columns() []model.Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.columns
}

// Subscribe registers a callback invoked after every board change. The
// returned function unregisters it.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// FetchBoard replaces the board wholesale from the gateway. Called on
// session start and whenever an external change passes the echo gate.
// A failed initial fetch leaves the board empty rather than failing the
// presentation layer.
func (s *Store) FetchBoard(ctx context.Context) error {
	ownerID, ok := s.identity.CurrentUserID()
	if !ok {
		s.replace(nil)
		return gateway.ErrNotAuthenticated
	}

	board, err := s.gw.FetchBoard(ctx, ownerID)
	if err != nil {
		s.log.WithError(err).Error("board fetch failed")
		s.notifier.Error("Could not load the board: " + reason(err))
		return err
	}

	s.replace(board.Columns)
	return nil
}

// AddColumn creates a column remotely and refetches so the new column
// appears with its remote id. Column creation is rare enough that no
// optimistic insert is attempted.
func (s *Store) AddColumn(ctx context.Context, title string) bool {
	if err := model.ValidateColumnTitle(title); err != nil {
		s.notifier.Error("Invalid column title: " + err.Error())
		return false
	}

	ownerID, ok := s.identity.CurrentUserID()
	if !ok {
		s.notifier.Error("Sign in to add columns")
		return false
	}

	s.echo.markWrite()
	if err := s.gw.CreateColumn(ctx, title, ownerID); err != nil {
		s.log.WithError(err).Error("column create failed")
		s.notifier.Error("Could not add the column: " + reason(err))
		return false
	}

	if err := s.FetchBoard(ctx); err != nil {
		return false
	}
	s.notifier.Success("Column added")
	return true
}

// AddCard creates a card at the end of the target column. The card's
// order is the column's current card count.
func (s *Store) AddCard(ctx context.Context, columnID uuid.UUID, title, description string) bool {
	if err := model.ValidateCardTitle(title); err != nil {
		s.notifier.Error("Invalid card title: " + err.Error())
		return false
	}
	if err := model.ValidateCardDescription(description); err != nil {
		s.notifier.Error("Invalid card description: " + err.Error())
		return false
	}

	s.mu.RLock()
	idx := model.ColumnIndex(s.columns, columnID)
	order := 0
	if idx >= 0 {
		order = len(s.columns[idx].Cards)
	}
	s.mu.RUnlock()
	if idx < 0 {
		s.notifier.Error("Could not add the card: column no longer exists")
		return false
	}

	s.echo.markWrite()
	if err := s.gw.CreateCard(ctx, columnID, title, description, order); err != nil {
		s.log.WithError(err).Error("card create failed")
		s.notifier.Error("Could not add the card: " + reason(err))
		return false
	}

	if err := s.FetchBoard(ctx); err != nil {
		return false
	}
	return true
}

// EditCard patches title, done state and description, locally first for
// responsiveness and then remotely with the same field set so the two
// cannot drift.
func (s *Store) EditCard(ctx context.Context, cardID uuid.UUID, title string, isDone bool, description string) bool {
	if err := model.ValidateCardTitle(title); err != nil {
		s.notifier.Error("Invalid card title: " + err.Error())
		return false
	}
	if err := model.ValidateCardDescription(description); err != nil {
		s.notifier.Error("Invalid card description: " + err.Error())
		return false
	}

	trimmed := strings.TrimSpace(title)
	applied := s.patchCard(cardID, func(card *model.Card) {
		card.Title = trimmed
		card.IsDone = isDone
		card.Description = description
	})
	if !applied {
		s.notifier.Error("Could not update the card: card no longer exists")
		return false
	}

	s.echo.markWrite()
	patch := gateway.CardPatch{Title: &trimmed, IsDone: &isDone, Description: &description}
	if err := s.gw.UpdateCard(ctx, cardID, patch); err != nil {
		s.log.WithError(err).Error("card update failed")
		s.notifier.Error("Could not update the card: " + reason(err))
		return false
	}
	return true
}

// DeleteCard removes a card locally and remotely. Remaining cards in the
// column are reindexed locally so orders stay dense.
func (s *Store) DeleteCard(ctx context.Context, cardID uuid.UUID) {
	s.removeCard(cardID)

	s.echo.markWrite()
	if err := s.gw.DeleteCard(ctx, cardID); err != nil {
		s.log.WithError(err).Error("card delete failed")
		s.notifier.Error("Could not delete the card: " + reason(err))
		return
	}
	s.notifier.Success("Card deleted")
}

// DeleteColumn removes a column and its cards.
func (s *Store) DeleteColumn(ctx context.Context, columnID uuid.UUID) {
	s.removeColumn(columnID)

	s.echo.markWrite()
	if err := s.gw.DeleteColumn(ctx, columnID); err != nil {
		s.log.WithError(err).Error("column delete failed")
		s.notifier.Error("Could not delete the column: " + reason(err))
		return
	}
	s.notifier.Success("Column deleted")
}

// RenameColumn retitles a column locally and remotely.
func (s *Store) RenameColumn(ctx context.Context, columnID uuid.UUID, title string) bool {
	if err := model.ValidateColumnTitle(title); err != nil {
		s.notifier.Error("Invalid column title: " + err.Error())
		return false
	}

	trimmed := strings.TrimSpace(title)
	s.retitleColumn(columnID, trimmed)

	s.echo.markWrite()
	if err := s.gw.RenameColumn(ctx, columnID, trimmed); err != nil {
		s.log.WithError(err).Error("column rename failed")
		s.notifier.Error("Could not rename the column: " + reason(err))
		return false
	}
	return true
}

// SetColumns is the raw optimistic setter used by the drag engine. It
// bypasses the gateway entirely; the caller follows up with ApplyReorder.
func (s *Store) SetColumns(columns []model.Column) {
	s.replace(columns)
}

// ApplyReorder mirrors a drag rearrangement to the remote store. On
// failure the optimistic local state is kept, not reverted; the error is
// reported and the next accepted external change reconciles the two.
func (s *Store) ApplyReorder(ctx context.Context, updates []gateway.CardUpdate) {
	if len(updates) == 0 {
		return
	}

	s.echo.markWrite()
	if err := s.gw.BatchReorder(ctx, updates); err != nil {
		var partial *gateway.PartialBatchError
		if errors.As(err, &partial) {
			s.log.WithError(partial.Err).WithField("applied", partial.Applied).Error("card reorder partially applied")
		} else {
			s.log.WithError(err).Error("card reorder failed")
		}
		s.notifier.Error("Could not sync the new card order: " + reason(err))
	}
}

// HandleRemoteChange reacts to one change-feed notification: dropped
// inside the echo window, otherwise a full refetch.
func (s *Store) HandleRemoteChange(ctx context.Context) {
	if s.echo.suppress() {
		s.log.Debug("change notification suppressed as local echo")
		return
	}
	if err := s.FetchBoard(ctx); err != nil {
		s.log.WithError(err).Warn("refetch after remote change failed")
	}
}

// HandleSessionChange loads the new owner's board on sign-in and
// discards the board on sign-out.
func (s *Store) HandleSessionChange(ctx context.Context) {
	if _, ok := s.identity.CurrentUserID(); ok {
		if err := s.FetchBoard(ctx); err == nil {
			s.notifier.Success("Welcome back")
		}
		return
	}
	s.replace(nil)
	s.notifier.Success("Signed out")
}

// replace swaps the canonical columns and wakes subscribers.
func (s *Store) replace(columns []model.Column) {
	s.mu.Lock()
	s.columns = columns
	listeners := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// patchCard rewrites one card copy-on-write. Returns false when the card
// is not on the board.
func (s *Store) patchCard(cardID uuid.UUID, mutate func(*model.Card)) bool {
	s.mu.RLock()
	columns := s.columns
	s.mu.RUnlock()

	for i := range columns {
		j := columns[i].CardIndex(cardID)
		if j < 0 {
			continue
		}
		next := make([]model.Column, len(columns))
		copy(next, columns)
		col := columns[i].Clone()
		mutate(&col.Cards[j])
		next[i] = col
		s.replace(next)
		return true
	}
	return false
}

func (s *Store) removeCard(cardID uuid.UUID) {
	s.mu.RLock()
	columns := s.columns
	s.mu.RUnlock()

	for i := range columns {
		j := columns[i].CardIndex(cardID)
		if j < 0 {
			continue
		}
		next := make([]model.Column, len(columns))
		copy(next, columns)
		col := columns[i]
		cards := make([]model.Card, 0, len(col.Cards)-1)
		cards = append(cards, col.Cards[:j]...)
		cards = append(cards, col.Cards[j+1:]...)
		for k := range cards {
			cards[k].Order = k
		}
		col.Cards = cards
		next[i] = col
		s.replace(next)
		return
	}
}

func (s *Store) removeColumn(columnID uuid.UUID) {
	s.mu.RLock()
	columns := s.columns
	s.mu.RUnlock()

	i := model.ColumnIndex(columns, columnID)
	if i < 0 {
		return
	}
	next := make([]model.Column, 0, len(columns)-1)
	next = append(next, columns[:i]...)
	next = append(next, columns[i+1:]...)
	s.replace(next)
}

func (s *Store) retitleColumn(columnID uuid.UUID, title string) {
	s.mu.RLock()
	columns := s.columns
	s.mu.RUnlock()

	i := model.ColumnIndex(columns, columnID)
	if i < 0 {
		return
	}
	next := make([]model.Column, len(columns))
	copy(next, columns)
	next[i].Title = title
	s.replace(next)
}

// reason strips error wrapping down to a human-readable cause.
func reason(err error) string {
	if errors.Is(err, gateway.ErrNotAuthenticated) {
		return "you are signed out, please sign in again"
	}
	var remote *gateway.RemoteError
	if errors.As(err, &remote) {
		return fmt.Sprintf("%v", remote.Err)
	}
	return err.Error()
}
