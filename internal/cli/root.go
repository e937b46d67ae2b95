// Package cli is the boardctl presentation layer: cobra commands that turn
// flags and prompts into session, gateway and cascade calls and print JSON.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/communityboard/board-system/internal/client"
	"github.com/communityboard/board-system/internal/infrastructure/localstate"
	"github.com/communityboard/board-system/internal/infrastructure/remote"
	"github.com/communityboard/board-system/internal/pkg/config"
	"github.com/communityboard/board-system/pkg/logger"
)

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Backend is what one command invocation works against.
type Backend struct {
	Board *client.Board
	// Images is nil when uploads are not available.
	Images ImageUploader
}

type BackendFactory func(ctx context.Context, cfg *config.ClientConfig, log zerolog.Logger) (*Backend, error)

// RemoteBackend talks to boardd and keeps the session and the deletion
// cursor under cfg.StateDir.
func RemoteBackend(_ context.Context, cfg *config.ClientConfig, log zerolog.Logger) (*Backend, error) {
	rc, err := remote.New(remote.Config{
		URL:     cfg.URL,
		AnonKey: cfg.AnonKey,
		Timeout: cfg.Timeout,
	}, localstate.NewSessionFile(cfg.StateDir), log.With().Str("component", "remote").Logger())
	if err != nil {
		return nil, err
	}

	board := client.New(rc, client.Tables{
		LostFound: remote.NewLostFoundTable(rc),
		Jobs:      remote.NewJobsTable(rc),
		News:      remote.NewNewsTable(rc),
	}, localstate.NewCursorFile(cfg.StateDir), log)

	return &Backend{Board: board, Images: rc}, nil
}

type Option func(*app)

// WithLookuper replaces the process environment as the config source.
func WithLookuper(l envconfig.Lookuper) Option {
	return func(a *app) { a.lookuper = l }
}

func WithBackend(f BackendFactory) Option {
	return func(a *app) { a.backend = f }
}

type app struct {
	lookuper envconfig.Lookuper
	backend  BackendFactory
	lines    *bufio.Reader
}

func NewRootCmd(version string, opts ...Option) *cobra.Command {
	a := &app{
		lookuper: envconfig.OsLookuper(),
		backend:  RemoteBackend,
	}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:           "boardctl",
		Short:         "Community board client",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newSignUpCmd(a))
	root.AddCommand(newSignInCmd(a))
	root.AddCommand(newSignOutCmd(a))
	root.AddCommand(newWhoAmICmd(a))
	root.AddCommand(newLostFoundCmd(a))
	root.AddCommand(newJobsCmd(a))
	root.AddCommand(newNewsCmd(a))
	root.AddCommand(newDeleteAccountCmd(a))
	return root
}

// open loads configuration, builds the backend and resolves the session.
// The caller must call the returned close func.
func (a *app) open(cmd *cobra.Command) (*Backend, func(), error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadClientFrom(ctx, a.lookuper)
	if err != nil {
		return nil, nil, err
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Output:  cmd.ErrOrStderr(),
		Service: "boardctl",
	})

	b, err := a.backend(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	b.Board.Init(ctx)
	a.lines = bufio.NewReader(cmd.InOrStdin())

	return b, b.Board.Close, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
