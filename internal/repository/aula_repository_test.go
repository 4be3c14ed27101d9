package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
)

func TestAulaRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAulaRepository(db)

	mock.ExpectQuery("INSERT INTO aulas").
		WithArgs(int64(1), sqlmock.AnyArg(), "tok123", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	aula := &models.Aula{TurmaID: 1, QRToken: "tok123"}
	require.NoError(t, repo.Create(context.Background(), aula))
	assert.Equal(t, int64(5), aula.ID)
	assert.False(t, aula.DataHora.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAulaRepositoryFindByToken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAulaRepository(db)

	rows := sqlmock.NewRows([]string{"id", "turma_id", "data_hora", "qr_token", "criado_em"}).
		AddRow(int64(5), int64(1), time.Now(), "tok123", time.Now())
	mock.ExpectQuery("SELECT id, turma_id, data_hora, qr_token").
		WithArgs("tok123").
		WillReturnRows(rows)

	aula, err := repo.FindByToken(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Equal(t, int64(5), aula.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAulaRepositoryMostRecentByTurmaEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAulaRepository(db)

	mock.ExpectQuery("SELECT id, turma_id, data_hora, qr_token").
		WithArgs(int64(2)).
		WillReturnError(sql.ErrNoRows)

	aula, err := repo.MostRecentByTurma(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, aula)
}
