package gateway

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"boardsync/internal/model"
)

// columnRow and cardRow mirror the wire schema. They never leave this
// package; FetchBoard decodes them into model entities.
type columnRow struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title   string    `gorm:"not null"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (columnRow) TableName() string { return "columns" }

type cardRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string    `gorm:"not null"`
	Description string
	IsDone      bool      `gorm:"not null"`
	ColumnID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CardOrder   int       `gorm:"not null"`
}

func (cardRow) TableName() string { return "cards" }

// Postgres is the Gateway implementation over the relational store. The
// change feed is delegated to a Feed since notifications arrive over a
// separate transport.
type Postgres struct {
	db   *gorm.DB
	feed *Feed
}

func NewPostgres(db *gorm.DB, feed *Feed) *Postgres {
	return &Postgres{db: db, feed: feed}
}

func (g *Postgres) FetchBoard(ctx context.Context, ownerID uuid.UUID) (model.Board, error) {
	if ownerID == uuid.Nil {
		return model.Board{}, ErrNotAuthenticated
	}

	var cols []columnRow
	if err := g.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&cols).Error; err != nil {
		return model.Board{}, &RemoteError{Op: "fetch columns", Err: err}
	}

	board := model.Board{Columns: make([]model.Column, 0, len(cols))}
	if len(cols) == 0 {
		return board, nil
	}

	ids := make([]uuid.UUID, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
	}

	var cards []cardRow
	if err := g.db.WithContext(ctx).Where("column_id IN ?", ids).Order("card_order").Find(&cards).Error; err != nil {
		return model.Board{}, &RemoteError{Op: "fetch cards", Err: err}
	}

	byColumn := make(map[uuid.UUID][]model.Card, len(cols))
	for _, row := range cards {
		byColumn[row.ColumnID] = append(byColumn[row.ColumnID], model.Card{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			IsDone:      row.IsDone,
			Order:       row.CardOrder,
			ColumnID:    row.ColumnID,
		})
	}

	for _, c := range cols {
		cards := byColumn[c.ID]
		// Remote card_order values may have gaps (e.g. after a delete that
		// was never followed by a reorder). Relative order is authoritative;
		// ranks are re-densified here so the client invariant holds.
		for i := range cards {
			cards[i].Order = i
		}
		board.Columns = append(board.Columns, model.Column{
			ID:      c.ID,
			Title:   c.Title,
			OwnerID: c.OwnerID,
			Cards:   cards,
		})
	}
	return board, nil
}

func (g *Postgres) CreateColumn(ctx context.Context, title string, ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return ErrNotAuthenticated
	}
	row := columnRow{ID: uuid.New(), Title: strings.TrimSpace(title), OwnerID: ownerID}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return &RemoteError{Op: "create column", Err: err}
	}
	return nil
}

func (g *Postgres) RenameColumn(ctx context.Context, columnID uuid.UUID, title string) error {
	result := g.db.WithContext(ctx).Model(&columnRow{}).
		Where("id = ?", columnID).
		Update("title", strings.TrimSpace(title))
	if result.Error != nil {
		return &RemoteError{Op: "rename column", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrColumnNotFound
	}
	return nil
}

// DeleteColumn deletes contained cards first. A card deletion failure
// leaves the column in place; the partial state is surfaced, not rolled
// back.
func (g *Postgres) DeleteColumn(ctx context.Context, columnID uuid.UUID) error {
	if err := g.db.WithContext(ctx).Where("column_id = ?", columnID).Delete(&cardRow{}).Error; err != nil {
		return &RemoteError{Op: "delete column cards", Err: err}
	}
	result := g.db.WithContext(ctx).Delete(&columnRow{}, "id = ?", columnID)
	if result.Error != nil {
		return &RemoteError{Op: "delete column", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrColumnNotFound
	}
	return nil
}

func (g *Postgres) CreateCard(ctx context.Context, columnID uuid.UUID, title, description string, order int) error {
	row := cardRow{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: description,
		ColumnID:    columnID,
		CardOrder:   order,
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return &RemoteError{Op: "create card", Err: err}
	}
	return nil
}

func (g *Postgres) UpdateCard(ctx context.Context, cardID uuid.UUID, patch CardPatch) error {
	fields := map[string]any{}
	if patch.Title != nil {
		fields["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.IsDone != nil {
		fields["is_done"] = *patch.IsDone
	}
	if len(fields) == 0 {
		return nil
	}

	result := g.db.WithContext(ctx).Model(&cardRow{}).Where("id = ?", cardID).Updates(fields)
	if result.Error != nil {
		return &RemoteError{Op: "update card", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (g *Postgres) DeleteCard(ctx context.Context, cardID uuid.UUID) error {
	result := g.db.WithContext(ctx).Delete(&cardRow{}, "id = ?", cardID)
	if result.Error != nil {
		return &RemoteError{Op: "delete card", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

// BatchReorder applies updates one at a time, in the given order, with
// no surrounding transaction. The caller presents updates in an order
// where partial application is self-consistent; the first failure
// aborts the remainder and reports how many were committed.
func (g *Postgres) BatchReorder(ctx context.Context, updates []CardUpdate) error {
	for i, u := range updates {
		fields := map[string]any{"card_order": u.Order}
		if u.ColumnID != nil {
			fields["column_id"] = *u.ColumnID
		}
		result := g.db.WithContext(ctx).Model(&cardRow{}).Where("id = ?", u.CardID).Updates(fields)
		if result.Error != nil {
			return &PartialBatchError{Applied: i, Err: result.Error}
		}
		if result.RowsAffected == 0 {
			return &PartialBatchError{Applied: i, Err: ErrCardNotFound}
		}
	}
	return nil
}

func (g *Postgres) SubscribeToChanges(onChange func()) (Unsubscribe, error) {
	return g.feed.Subscribe(onChange)
}
