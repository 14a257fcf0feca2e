package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/core"
	"github.com/joseph-ayodele/contacts-extractor/internal/export"
	"github.com/joseph-ayodele/contacts-extractor/internal/repository"
	"github.com/joseph-ayodele/contacts-extractor/internal/server"
)

var version = "dev"

// stdout receives the human-readable summaries. Logs go to stderr.
var stdout io.Writer = os.Stdout

// Globals are the flags shared by every command.
type Globals struct {
	NoStore bool   `help:"Do not record runs in the run store." name:"no-store"`
	WorkDir string `help:"Directory for text dumps and intermediate files (overrides WORK_DIR)." type:"path"`
}

// CLI is the top-level command structure for contact-extract.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	Process ProcessCmd       `cmd:"" help:"Extract contacts from a ZIP, PDF, image or text dump into a workbook."`
	Batch   BatchCmd         `cmd:"" help:"Process every card file under a directory into one workbook."`
	Export  ExportCmd        `cmd:"" help:"Export the contacts of a stored run."`
}

// env is what a command needs once configuration is resolved.
type env struct {
	cfg       *common.Config
	logger    *slog.Logger
	runs      repository.RunRepository // nil with --no-store
	processor *core.Processor
	exporter  *export.Service
}

func (g *Globals) open(ctx context.Context, needStore bool) (*env, func(), error) {
	cfg := common.LoadConfig()
	if g.WorkDir != "" {
		cfg.Output.WorkDir = g.WorkDir
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if needStore && g.NoStore {
		return nil, nil, fmt.Errorf("%w: this command needs the run store", common.ErrInvalidInput)
	}

	e := &env{cfg: cfg, logger: logger}
	cleanup := func() {}
	if !g.NoStore {
		store, err := server.ConnectDB(ctx, cfg.Store, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open run store: %w", err)
		}
		e.runs = store
		cleanup = store.Close
	}

	proc, err := core.NewProcessorFromConfig(cfg, e.runs, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	e.processor = proc
	e.exporter = export.NewService(e.runs, logger)
	return e, cleanup, nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrUnsupportedFormat),
		errors.Is(err, common.ErrNotFound):
		return 2
	default:
		return 1
	}
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("contact-extract"),
		kong.Description("Extract business-card contacts from scanned cards."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(&cli.Globals); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
