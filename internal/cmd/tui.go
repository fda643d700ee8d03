package cmd

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a2y-d5l/flowbridge/internal/config"
	"github.com/a2y-d5l/flowbridge/internal/tui"
)

func newTUICommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the pipeline with an interactive tick button",
		Long: `Tui shows the latest value posted by the driver. Press t or space to tick
the event source and q to quit. Logs are discarded unless --log-file is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runTUI(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	logger := zap.NewNop()
	if cfg.Log.File != "" {
		l, err := newLogger(cfg)
		if err != nil {
			return err
		}
		logger = l
		defer func() { _ = logger.Sync() }()
	}

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	prog := tea.NewProgram(tui.New(p.source),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	d, err := p.driver(tui.Sink(prog))
	if err != nil {
		return err
	}

	var driverErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		driverErr = d.Run(gctx)
		prog.Send(tui.DoneMsg{Err: driverErr})
		return nil
	})
	if cfg.Driver.Interval > 0 {
		g.Go(func() error {
			return p.tickInterval(gctx)
		})
	}
	g.Go(func() error {
		return p.serveMetrics(gctx)
	})
	g.Go(func() error {
		defer stop()
		if _, err := prog.Run(); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})

	err = g.Wait()
	return multierr.Append(err, driverErr)
}
