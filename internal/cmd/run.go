package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/a2y-d5l/flowbridge/internal/config"
	"github.com/a2y-d5l/flowbridge/internal/driver"
)

func newRunCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline headless and print every value",
		Long: `Run zips the synthetic sequence 0..N with the bridged event source and
prints each pair, then prints the synthetic sequence on its own.

Without --interval the source is ticked once per line read from stdin.

Examples:
  # Six ticks complete the default source (seed 5, threshold 10)
  yes | head -n 6 | flowbridge run

  # Tick every 200ms
  flowbridge run --interval 200ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runHeadless(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runHeadless(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}
	d, err := p.driver(driver.SinkFunc(func(v string) {
		fmt.Fprintln(out, v)
	}))
	if err != nil {
		return err
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return d.Run(gctx)
	})
	g.Go(func() error {
		if cfg.Driver.Interval > 0 {
			return p.tickInterval(gctx)
		}
		return p.tickLines(gctx, in, stop)
	})
	g.Go(func() error {
		return p.serveMetrics(gctx)
	})
	return g.Wait()
}
