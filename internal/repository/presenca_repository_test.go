package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
)

func TestPresencaRepositoryFindByAulaAndAluno(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPresencaRepository(db)

	rows := sqlmock.NewRows([]string{"id", "aula_id", "aluno_id", "registrada_por", "horario"}).
		AddRow(int64(3), int64(1), int64(2), int64(4), time.Now())
	mock.ExpectQuery("SELECT id, aula_id, aluno_id, registrada_por, horario FROM presencas").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(rows)

	presencas, err := repo.FindByAulaAndAluno(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, presencas, 1)
	assert.Equal(t, int64(3), presencas[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresencaRepositoryFindByAulaAndAlunoEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPresencaRepository(db)

	mock.ExpectQuery("SELECT id, aula_id, aluno_id, registrada_por, horario FROM presencas").
		WithArgs(int64(1), int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "aula_id", "aluno_id", "registrada_por", "horario"}))

	presencas, err := repo.FindByAulaAndAluno(context.Background(), 1, 99)
	require.NoError(t, err)
	assert.Empty(t, presencas)
}

func TestPresencaRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPresencaRepository(db)

	mock.ExpectQuery("INSERT INTO presencas").
		WithArgs(int64(1), int64(2), int64(4), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))

	presenca := &models.Presenca{AulaID: 1, AlunoID: 2, RegistradaPor: 4}
	require.NoError(t, repo.Insert(context.Background(), presenca))
	assert.Equal(t, int64(10), presenca.ID)
	assert.False(t, presenca.Horario.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresencaRepositoryCountByAlunoAndTurma(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPresencaRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := repo.CountByAlunoAndTurma(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
}
