package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vogtb/go-sheetcore/packages/sheetcore"
)

// session is an open sheet plus whatever needs closing when the command
// finishes
type session struct {
	sheet *sheetcore.Sheet
	store *sheetcore.BoltStore
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// openSession loads the config, opens the store if --db is set and
// replays it into a sheet
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := sheetcore.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger := newLogger(opts, cmd.ErrOrStderr())
	sheetOpts := []sheetcore.Option{
		sheetcore.WithConfig(cfg),
		sheetcore.WithLogger(logger),
	}

	if opts.DBPath == "" {
		sheet, err := sheetcore.New(sheetOpts...)
		if err != nil {
			return nil, err
		}
		return &session{sheet: sheet}, nil
	}

	store, err := sheetcore.OpenBoltStore(opts.DBPath, opts.Sheet)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sheet, err := sheetcore.Open(store, sheetOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &session{sheet: sheet, store: store}, nil
}

func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
