// Command mazecore runs the exploration/SLAM engine against a map
// record supplied on the command line, driving the tick loop to
// mission completion or an external interrupt.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"github.com/viam-labs/mazecore/config"
	"github.com/viam-labs/mazecore/explore"
	"github.com/viam-labs/mazecore/logging"
	"github.com/viam-labs/mazecore/maze"
)

var log = logging.NewLogger("mazecore.cli")

func main() {
	app := &cli.App{
		Name:  "mazecore",
		Usage: "run the autonomous maze-exploration and SLAM engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "map",
				Usage:    "path to a map record JSON file",
				Required: true,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Errorw("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	raw, err := os.ReadFile(c.String("map"))
	if err != nil {
		return err
	}
	record, err := maze.LoadRecord(raw)
	if err != nil {
		return err
	}
	m, err := maze.New(record)
	if err != nil {
		return err
	}

	cfg := config.Default()
	engine := explore.NewEngine(m, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for i := 0; i < cfg.MaxSteps; i++ {
		select {
		case <-ctx.Done():
			engine.Cancel()
		default:
		}
		if engine.Cancelled() {
			log.Infow("interrupted, stopping cleanly", "tick", i)
			return nil
		}

		engine.Step()
		for _, ev := range engine.Events() {
			log.Infow("phase transition", "tick", ev.Tick, "from", ev.From.String(), "to", ev.To.String())
		}

		snap := engine.Snapshot()
		if snap.Phase == explore.PhaseMissionComplete {
			log.Infow("mission complete", "tick", snap.Tick, "exploration_ratio", snap.ExplorationRatio)
			return nil
		}
		if snap.Phase == explore.PhaseMissionTimeout {
			log.Warnw("mission aborted: timeout budget exceeded", "tick", snap.Tick, "exploration_ratio", snap.ExplorationRatio)
			return nil
		}
	}

	log.Warnw("max_steps exceeded without mission completion", "max_steps", cfg.MaxSteps)
	return nil
}
