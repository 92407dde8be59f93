package gateway_test

import (
	"context"
	"errors"
	"testing"

	"boardsync/internal/gateway"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	assert.NoError(t, err)

	return gormDB, mock
}

func TestFetchBoard_DecodesAndDensifies(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)

	ownerID := uuid.New()
	todoID := uuid.New()
	doingID := uuid.New()
	cardA := uuid.New()
	cardB := uuid.New()
	cardC := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "columns" WHERE owner_id = .* ORDER BY id`).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id"}).
			AddRow(todoID.String(), "Todo", ownerID.String()).
			AddRow(doingID.String(), "Doing", ownerID.String()))

	// Orders arrive gapped (0, 2) after an unreconciled remote delete.
	mock.ExpectQuery(`SELECT .* FROM "cards" WHERE column_id IN .* ORDER BY card_order`).
		WithArgs(todoID, doingID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "is_done", "column_id", "card_order"}).
			AddRow(cardC.String(), "C", "", false, doingID.String(), 0).
			AddRow(cardA.String(), "A", "first", false, todoID.String(), 0).
			AddRow(cardB.String(), "B", "", true, todoID.String(), 2))

	// Act
	board, err := gw.FetchBoard(context.Background(), ownerID)

	// Assert
	assert.NoError(t, err)
	require.Len(t, board.Columns, 2)

	todo := board.Columns[0]
	assert.Equal(t, "Todo", todo.Title)
	require.Len(t, todo.Cards, 2)
	assert.Equal(t, cardA, todo.Cards[0].ID)
	assert.Equal(t, 0, todo.Cards[0].Order)
	assert.Equal(t, cardB, todo.Cards[1].ID)
	assert.Equal(t, 1, todo.Cards[1].Order, "gapped orders must be densified")
	assert.True(t, todo.Cards[1].IsDone)

	doing := board.Columns[1]
	require.Len(t, doing.Cards, 1)
	assert.Equal(t, cardC, doing.Cards[0].ID)
	assert.Equal(t, doingID, doing.Cards[0].ColumnID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchBoard_EmptyBoard(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)
	ownerID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "columns" WHERE owner_id = .* ORDER BY id`).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id"}))

	// Act
	board, err := gw.FetchBoard(context.Background(), ownerID)

	// Assert
	assert.NoError(t, err)
	assert.Empty(t, board.Columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchBoard_NilOwner(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)

	_, err := gw.FetchBoard(context.Background(), uuid.Nil)

	assert.ErrorIs(t, err, gateway.ErrNotAuthenticated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateColumn(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)
	ownerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "columns"`).
		WithArgs(sqlmock.AnyArg(), "Backlog", ownerID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := gw.CreateColumn(context.Background(), "  Backlog  ", ownerID)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCard(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)
	columnID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "cards"`).
		WithArgs(sqlmock.AnyArg(), "Ship it", "details", false, columnID, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := gw.CreateCard(context.Background(), columnID, "Ship it", "details", 2)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenameColumn_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)
	columnID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "columns" SET "title"`).
		WithArgs("Renamed", columnID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// Act
	err := gw.RenameColumn(context.Background(), columnID, "Renamed")

	// Assert
	assert.ErrorIs(t, err, gateway.ErrColumnNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCard_PartialFields(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)
	cardID := uuid.New()
	title := "  Renamed  "

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "cards" SET "title"`).
		WithArgs("Renamed", cardID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := gw.UpdateCard(context.Background(), cardID, gateway.CardPatch{Title: &title})

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCard_EmptyPatchIsNoOp(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)

	err := gw.UpdateCard(context.Background(), uuid.New(), gateway.CardPatch{})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCard_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)
	cardID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "cards"`).
		WithArgs(cardID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// Act
	err := gw.DeleteCard(context.Background(), cardID)

	// Assert
	assert.ErrorIs(t, err, gateway.ErrCardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteColumn_CardsFirst(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)
	columnID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "cards" WHERE column_id`).
		WithArgs(columnID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "columns"`).
		WithArgs(columnID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := gw.DeleteColumn(context.Background(), columnID)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteColumn_CardDeleteFailureAborts(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)
	columnID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "cards" WHERE column_id`).
		WithArgs(columnID).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	// Act
	err := gw.DeleteColumn(context.Background(), columnID)

	// Assert: the column delete must never be attempted.
	var remote *gateway.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "delete column cards", remote.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchReorder_AppliesSequentially(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)
	cardA := uuid.New()
	cardB := uuid.New()
	doingID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "cards" SET "card_order"`).
		WithArgs(0, cardA).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "cards" SET "card_order"=.*,"column_id"=`).
		WithArgs(1, doingID, cardB).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := gw.BatchReorder(context.Background(), []gateway.CardUpdate{
		{CardID: cardA, Order: 0},
		{CardID: cardB, Order: 1, ColumnID: &doingID},
	})

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchReorder_FailureReportsAppliedCount(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)
	cardA := uuid.New()
	cardB := uuid.New()
	cardC := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "cards" SET "card_order"`).
		WithArgs(0, cardA).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "cards" SET "card_order"`).
		WithArgs(1, cardB).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	// Act: the third update must never reach the database.
	err := gw.BatchReorder(context.Background(), []gateway.CardUpdate{
		{CardID: cardA, Order: 0},
		{CardID: cardB, Order: 1},
		{CardID: cardC, Order: 2},
	})

	// Assert
	var partial *gateway.PartialBatchError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchReorder_MissingCardStopsBatch(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	gw := gateway.NewPostgres(gormDB, nil)
	cardA := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "cards" SET "card_order"`).
		WithArgs(0, cardA).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// Act
	err := gw.BatchReorder(context.Background(), []gateway.CardUpdate{{CardID: cardA, Order: 0}})

	// Assert
	var partial *gateway.PartialBatchError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 0, partial.Applied)
	assert.ErrorIs(t, partial.Err, gateway.ErrCardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
