package kanban

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBoardStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kanban_boards").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewPostgresStore(context.Background(), db)
	require.NoError(t, err)
	return store, mock
}

func TestPostgresStore_GetBoard_DefaultsWhenMissing(t *testing.T) {
	store, mock := setupBoardStore(t)

	mock.ExpectQuery("SELECT doc FROM kanban_boards").
		WithArgs("client-1").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}))

	board, err := store.GetBoard(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Equal(t, "client-1", board.ClientID)
	assert.Len(t, board.Columns, 6)
}

func TestPostgresStore_GetBoard_DecodesDocument(t *testing.T) {
	store, mock := setupBoardStore(t)

	saved := NewBoard("client-1")
	saved.Columns[0].Cards = []Card{{ID: "c1", Title: "Spring teaser"}}
	doc, err := json.Marshal(saved)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT doc FROM kanban_boards").
		WithArgs("client-1").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow(doc))

	board, err := store.GetBoard(context.Background(), "client-1")
	require.NoError(t, err)
	require.Len(t, board.Columns[0].Cards, 1)
	assert.Equal(t, "Spring teaser", board.Columns[0].Cards[0].Title)
}

func TestPostgresStore_SaveBoard_Upserts(t *testing.T) {
	store, mock := setupBoardStore(t)

	mock.ExpectExec("INSERT INTO kanban_boards").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SaveBoard(context.Background(), NewBoard("client-1"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
