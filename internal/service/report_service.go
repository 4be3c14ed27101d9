package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
	appErrors "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/errors"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/export"
)

// ReportFormat selects the rendered output.
type ReportFormat string

const (
	FormatCSV ReportFormat = "csv"
	FormatPDF ReportFormat = "pdf"
)

type reportTurmaRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Turma, error)
	ListAlunos(ctx context.Context, turmaID int64) ([]models.AlunoCompleto, error)
}

type reportPresencaRepository interface {
	CountByAlunoAndTurma(ctx context.Context, alunoID, turmaID int64) (int, error)
}

// Report is a rendered attendance report ready to serve.
type Report struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ReportService renders per-turma attendance summaries as CSV or PDF.
type ReportService struct {
	turmas    reportTurmaRepository
	presencas reportPresencaRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(turmas reportTurmaRepository, presencas reportPresencaRepository, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		turmas:    turmas,
		presencas: presencas,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// TurmaAttendance builds the roster-with-presence-counts report for one turma.
func (s *ReportService) TurmaAttendance(ctx context.Context, turmaID int64, format ReportFormat) (*Report, error) {
	turma, err := s.turmas.FindByID(ctx, turmaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "turma not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load turma")
	}

	alunos, err := s.turmas.ListAlunos(ctx, turmaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list turma roster")
	}

	dataset := export.Dataset{
		Headers: []string{"RA", "Nome", "Faixa", "Presencas"},
		Rows:    make([]map[string]string, 0, len(alunos)),
	}
	for _, aluno := range alunos {
		total, err := s.presencas.CountByAlunoAndTurma(ctx, aluno.ID, turmaID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count presencas")
		}
		faixa := ""
		if aluno.Detalhes != nil {
			faixa = string(aluno.Detalhes.Faixa)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"RA":        aluno.RA,
			"Nome":      aluno.Nome,
			"Faixa":     faixa,
			"Presencas": strconv.Itoa(total),
		})
	}

	switch format {
	case FormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &Report{
			FileName:    fmt.Sprintf("turma_%d_presencas.csv", turmaID),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case FormatPDF:
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Presencas - %s", turma.Nome))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &Report{
			FileName:    fmt.Sprintf("turma_%d_presencas.pdf", turmaID),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
}
