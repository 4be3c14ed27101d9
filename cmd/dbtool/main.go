package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	appdb "github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/database"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/repository"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/service"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/config"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/database"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/logger"
)

const usage = `dbtool manages the database schema and example data.

Usage:
  dbtool migrate   apply pending schema migrations
  dbtool seed      load the example dataset
  dbtool clear     remove all data
  dbtool reset     clear then seed
`

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes one dbtool command and returns the process exit code. Asking
// for help (no command, or one we don't know) prints the usage text and
// exits 0; only actual failures exit non-zero.
func run(args []string, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(errOut, usage)
		return 0
	}
	command := args[0]
	switch command {
	case "migrate", "seed", "clear", "reset":
	default:
		fmt.Fprint(errOut, usage)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(errOut, "failed to load config: %v\n", err)
		return 1
	}

	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "failed to init logger: %v\n", err)
		return 1
	}
	defer logr.Sync() //nolint:errcheck

	if command == "migrate" {
		if err := appdb.Migrate(database.URL(cfg.Database), "migrations"); err != nil {
			logr.Error("migrate failed", zap.Error(err))
			return 1
		}
		logr.Info("migrations applied")
		return 0
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Error("postgres unreachable", zap.Error(err))
		return 1
	}
	defer db.Close() //nolint:errcheck

	seeder := service.NewSeedService(
		repository.NewUserRepository(db),
		repository.NewStudentRepository(db),
		repository.NewTurmaRepository(db),
		repository.NewAulaRepository(db),
		repository.NewPresencaRepository(db),
		logr,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var counts *service.SeedCounts
	switch command {
	case "seed":
		counts, err = seeder.Seed(ctx)
	case "clear":
		counts, err = seeder.Clear(ctx)
	case "reset":
		counts, err = seeder.Reset(ctx)
	}

	if err != nil {
		logr.Error("command failed", zap.String("command", command), zap.Error(err))
		return 1
	}

	logr.Info("done",
		zap.String("command", command),
		zap.Int("usuarios", counts.Usuarios),
		zap.Int("detalhes", counts.Detalhes),
		zap.Int("turmas", counts.Turmas),
		zap.Int("aulas", counts.Aulas),
		zap.Int("presencas", counts.Presencas))
	return 0
}
