package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"buildops/internal/app"
	"buildops/internal/config"
	"buildops/internal/logging"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Opener builds the service container for a command run.
type Opener func(ctx context.Context, logger *slog.Logger) (*app.Container, error)

// Options configures the sitectl command tree.
type Options struct {
	Out    io.Writer
	Logger *slog.Logger
	Open   Opener
}

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// DefaultOpener loads configuration from the environment and connects to
// every configured backend.
func DefaultOpener(ctx context.Context, logger *slog.Logger) (*app.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.NewContainer(ctx, cfg, logger)
}

// NewRootCmd builds the sitectl command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logging.New(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	}
	if opts.Open == nil {
		opts.Open = DefaultOpener
	}
	logger := opts.Logger

	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "sitectl - construction project analytics",
		Long:          "sitectl runs risk scoring, cost prediction and weather rescheduling against the buildops database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			info := commandContext{
				correlationID: uuid.New(),
				startedAt:     time.Now(),
			}
			cmd.SetContext(context.WithValue(cmd.Context(), commandContextKey{}, info))
			logger.Debug("command start",
				"command", cmd.CommandPath(),
				"correlation_id", info.correlationID.String(),
			)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
			if !ok {
				return
			}
			logger.Debug("command end",
				"command", cmd.CommandPath(),
				"correlation_id", info.correlationID.String(),
				"duration_ms", time.Since(info.startedAt).Milliseconds(),
			)
		},
	}

	root.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newRiskCmd(opts),
		newCostCmd(opts),
		newWeatherCmd(opts),
	)
	return root
}

// Execute runs sitectl and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd(Options{}).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withContainer opens the container, runs fn and closes it.
func withContainer(cmd *cobra.Command, opts Options, fn func(*app.Container) error) error {
	c, err := opts.Open(cmd.Context(), opts.Logger)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseProjectID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid project id %q", arg)
	}
	return uint(id), nil
}
