package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/rdk/logging"

	"go.viam.com/grasp/config"
	"go.viam.com/grasp/grasping"
	"go.viam.com/grasp/report"
	"go.viam.com/grasp/utils"
	"go.viam.com/grasp/visualization"
)

// QuitError is a fatal pre-flight failure: nothing was evaluated.
type QuitError struct {
	Err error
}

func (e *QuitError) Error() string {
	msg := e.Err.Error()
	return strings.ToUpper(msg[:1]) + msg[1:] + ". Quitting..."
}

func (e *QuitError) Unwrap() error {
	return e.Err
}

// EvaluateAction runs the evaluate command.
func EvaluateAction(c *cli.Context) error {
	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner{cfg: cfg, out: c.App.Writer, logger: newLogger(c)}
	if c.Bool(flagWatch) {
		return r.watch(ctx)
	}
	res, err := r.evaluate(ctx)
	if err != nil {
		return err
	}
	return r.show(ctx, res.acc.Arena(), cfg.Output.Viz)
}

func configFromFlags(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet(flagScene) {
		cfg.Scene = c.String(flagScene)
	}
	if c.IsSet(flagRobot) {
		cfg.Robot = c.String(flagRobot)
	}
	if c.IsSet(flagGrasps) {
		cfg.Grasps = c.String(flagGrasps)
	}
	if c.IsSet(flagDataPath) {
		cfg.DataPaths = append(cfg.DataPaths, c.StringSlice(flagDataPath)...)
	}
	if c.IsSet(flagSamples) {
		cfg.Robustness.Samples = c.Int(flagSamples)
	}
	if c.IsSet(flagMaxPos) {
		cfg.Robustness.MaxPositionDelta = c.Float64(flagMaxPos)
	}
	if c.IsSet(flagMaxOri) {
		cfg.Robustness.MaxOrientationDelta = c.Float64(flagMaxOri)
	}
	if c.IsSet(flagSeed) {
		cfg.Robustness.Seed = c.Uint64(flagSeed)
	}
	if c.IsSet(flagFailFast) {
		cfg.FailFast = c.Bool(flagFailFast)
	}
	if c.IsSet(flagViz) {
		cfg.Output.Viz = c.Bool(flagViz)
	}
	if c.IsSet(flagExport) {
		cfg.Output.Export = c.String(flagExport)
	}
	if c.IsSet(flagReport) {
		cfg.Output.Report = c.String(flagReport)
	}
	if c.IsSet(flagPlotDir) {
		cfg.Output.PlotDir = c.String(flagPlotDir)
	}
	return cfg, nil
}

type runner struct {
	cfg    config.Config
	out    io.Writer
	logger logging.Logger

	onEvaluated func(*evaluation, error)
}

type evaluation struct {
	inputs grasping.Inputs
	assoc  grasping.Association
	result *grasping.RunResult
	acc    *visualization.Accumulator
	report *report.Report
}

func (r *runner) dataPaths() utils.DataPaths {
	return utils.DataPaths(r.cfg.DataPaths).With(utils.DataPathsFromEnv()...)
}

// evaluate loads the inputs, evaluates every associated grasp and writes the requested outputs.
// Pre-flight failures are returned as a QuitError.
func (r *runner) evaluate(ctx context.Context) (*evaluation, error) {
	paths := r.dataPaths()
	ev := &evaluation{}
	ev.inputs = grasping.LoadInputs(paths, r.cfg.Scene, r.cfg.Robot, r.logger)
	if err := grasping.Preflight(ev.inputs); err != nil {
		return nil, &QuitError{Err: err}
	}
	sc, rob := ev.inputs.Scene, ev.inputs.Robot

	ev.assoc = grasping.Associate(sc, r.cfg.Grasps, paths, r.logger.Sublogger("associate"))
	r.logger.Infof("objects with grasps: %v", ev.assoc.Names())

	ev.acc = visualization.NewAccumulator(visualization.NewArena())
	opts := grasping.Options{
		FailFast:   r.cfg.FailFast,
		Quality:    r.cfg.Quality,
		Robustness: r.cfg.Robustness,
	}
	e := grasping.NewEvaluator(rob, ev.acc, opts, r.out, r.logger.Sublogger("evaluate"))
	rr, runErr := e.Run(ctx, ev.assoc.Worklist)
	ev.result = rr
	ev.acc.Rebuild(sc, rr.LastClone)
	if lo, hi, ok := ev.acc.Arena().Bounds(); ok {
		r.logger.Debugw("scene bounds", "min", lo, "max", hi)
	}

	ev.report = report.New(sc.Name, rob.Type, ev.assoc, rr)
	ev.report.Print(r.out)
	if err := r.writeOutputs(ev); err != nil {
		return ev, err
	}
	if runErr != nil {
		return ev, errors.Wrap(runErr, "evaluation aborted")
	}
	return ev, nil
}

func (r *runner) writeOutputs(ev *evaluation) error {
	out := r.cfg.Output
	if out.Report != "" {
		if err := ev.report.WriteFile(out.Report); err != nil {
			return err
		}
		r.logger.Infof("report written to %s", out.Report)
	}
	if out.PlotDir != "" {
		if err := os.MkdirAll(out.PlotDir, 0o750); err != nil {
			return errors.Wrap(err, "creating plot directory")
		}
		written, err := ev.report.PlotHistograms(out.PlotDir, 20)
		if err != nil {
			return err
		}
		r.logger.Infof("wrote %d histograms to %s", len(written), out.PlotDir)
	}
	return nil
}

// viewer combines the JSON export and the visualizer, as configured.
func (r *runner) viewer(block bool) visualization.MultiViewer {
	var mv visualization.MultiViewer
	if r.cfg.Output.Export != "" {
		mv = append(mv, &visualization.JSONExporter{Path: r.cfg.Output.Export})
	}
	if r.cfg.Output.Viz {
		mv = append(mv, &visualization.MotionToolsViewer{Logger: r.logger.Sublogger("viz"), Block: block})
	}
	return mv
}

// show exports the arena and draws it in the visualizer. With block set it waits until ctx is
// cancelled.
func (r *runner) show(ctx context.Context, a *visualization.Arena, block bool) error {
	if err := r.viewer(block).Show(ctx, a); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
