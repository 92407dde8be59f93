package model_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"boardsync/internal/model"
)

func column(title string, cardTitles ...string) model.Column {
	col := model.Column{ID: uuid.New(), Title: title, OwnerID: uuid.New()}
	for i, t := range cardTitles {
		col.Cards = append(col.Cards, model.Card{
			ID:       uuid.New(),
			Title:    t,
			Order:    i,
			ColumnID: col.ID,
		})
	}
	return col
}

func TestCheckInvariants_Valid(t *testing.T) {
	columns := []model.Column{
		column("Todo", "A", "B"),
		column("Doing", "C"),
		column("Done"),
	}

	assert.NoError(t, model.CheckInvariants(columns))
}

func TestCheckInvariants_ColumnIDMismatch(t *testing.T) {
	columns := []model.Column{column("Todo", "A")}
	columns[0].Cards[0].ColumnID = uuid.New()

	err := model.CheckInvariants(columns)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "column_id")
}

func TestCheckInvariants_GappedOrder(t *testing.T) {
	columns := []model.Column{column("Todo", "A", "B")}
	columns[0].Cards[1].Order = 2

	assert.Error(t, model.CheckInvariants(columns))
}

func TestCheckInvariants_DuplicateCard(t *testing.T) {
	columns := []model.Column{column("Todo", "A"), column("Doing")}
	dup := columns[0].Cards[0]
	dup.Order = 0
	dup.ColumnID = columns[1].ID
	columns[1].Cards = append(columns[1].Cards, dup)

	err := model.CheckInvariants(columns)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "appears in both")
}

func TestCloneColumns_Independent(t *testing.T) {
	columns := []model.Column{column("Todo", "A", "B")}

	clone := model.CloneColumns(columns)
	clone[0].Cards[0].Title = "changed"

	assert.Equal(t, "A", columns[0].Cards[0].Title)
}

func TestValidateCardTitle(t *testing.T) {
	assert.NoError(t, model.ValidateCardTitle("Ship it"))
	assert.NoError(t, model.ValidateCardTitle(strings.Repeat("x", model.MaxCardTitleLen)))

	assert.ErrorIs(t, model.ValidateCardTitle(""), model.ErrEmptyTitle)
	assert.ErrorIs(t, model.ValidateCardTitle("   "), model.ErrEmptyTitle)
	assert.Error(t, model.ValidateCardTitle(strings.Repeat("x", model.MaxCardTitleLen+1)))
}

func TestValidateCardDescription(t *testing.T) {
	assert.NoError(t, model.ValidateCardDescription(""))
	assert.NoError(t, model.ValidateCardDescription(strings.Repeat("x", model.MaxCardDescriptionLen)))
	assert.Error(t, model.ValidateCardDescription(strings.Repeat("x", model.MaxCardDescriptionLen+1)))
}

func TestValidateColumnTitle(t *testing.T) {
	assert.NoError(t, model.ValidateColumnTitle("Backlog"))
	assert.ErrorIs(t, model.ValidateColumnTitle(" "), model.ErrEmptyTitle)
	assert.Error(t, model.ValidateColumnTitle(strings.Repeat("x", model.MaxColumnTitleLen+1)))
}
