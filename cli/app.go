// Package cli contains the grasp-eval command line application.
package cli

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/urfave/cli/v2"
	"go.viam.com/rdk/logging"
)

const (
	flagDebug = "debug"

	flagConfig   = "config"
	flagScene    = "scene"
	flagRobot    = "robot"
	flagGrasps   = "grasps"
	flagDataPath = "data-path"
	flagSamples  = "samples"
	flagMaxPos   = "max-pos-delta"
	flagMaxOri   = "max-ori-delta"
	flagSeed     = "seed"
	flagFailFast = "fail-fast"
	flagViz      = "viz"
	flagExport   = "export"
	flagReport   = "report"
	flagPlotDir  = "plot-dir"
	flagWatch    = "watch"

	flagReached = "reached"
	flagDesired = "desired"
)

// NewApp returns the grasp-eval application writing results to out and diagnostics to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "grasp-eval",
		Usage:           "evaluate the quality and robustness of robot grasps in a scene",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "evaluate",
				Usage:     "evaluate every grasp of every object in a scene",
				UsageText: "grasp-eval evaluate --scene FILE [--robot FILE] --grasps DIR [options]",
				Flags:     evaluateFlags(),
				Action:    EvaluateAction,
			},
			{
				Name:  "reachability",
				Usage: "score reached poses against the targets of a benchmark layout",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagReached,
						Required: true,
						Usage:    "scene `FILE` holding the reached Reachable_frameXY poses",
					},
					&cli.StringFlag{
						Name:  flagDesired,
						Usage: "scene `FILE` holding the target poses, chosen from the layout when omitted",
					},
					&cli.StringSliceFlag{
						Name:  flagDataPath,
						Usage: "additional data `DIR` to search for target files",
					},
				},
				Action: ReachabilityAction,
			},
			{
				Name:  "version",
				Usage: "print version info for this program",
				Action: func(c *cli.Context) error {
					info, ok := debug.ReadBuildInfo()
					if !ok {
						return fmt.Errorf("error reading build info")
					}
					version := info.Main.Version
					if version == "" {
						version = "(dev)"
					}
					fmt.Fprintf(c.App.Writer, "grasp-eval %s %s\n", version, info.GoVersion)
					return nil
				},
			},
		},
	}
}

func evaluateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load the run configuration from YAML `FILE`; flags override its values",
		},
		&cli.StringFlag{
			Name:  flagScene,
			Usage: "scene `FILE`",
		},
		&cli.StringFlag{
			Name:  flagRobot,
			Usage: "robot `FILE`, defaults to the robot referenced by the scene",
		},
		&cli.StringFlag{
			Name:  flagGrasps,
			Usage: "`DIR` holding {object}_grasp.xml files",
		},
		&cli.StringSliceFlag{
			Name:  flagDataPath,
			Usage: "data `DIR` searched for scene, robot and grasp files",
		},
		&cli.IntFlag{
			Name:  flagSamples,
			Usage: "number of perturbed poses per grasp",
		},
		&cli.Float64Flag{
			Name:  flagMaxPos,
			Usage: "maximum position perturbation in mm",
		},
		&cli.Float64Flag{
			Name:  flagMaxOri,
			Usage: "maximum orientation perturbation in degrees",
		},
		&cli.Uint64Flag{
			Name:  flagSeed,
			Usage: "seed of the pose sampler",
		},
		&cli.BoolFlag{
			Name:  flagFailFast,
			Usage: "abort at the first grasp that cannot be evaluated",
		},
		&cli.BoolFlag{
			Name:  flagViz,
			Usage: "draw the results in a running motion-tools visualizer and wait for ctrl-c",
		},
		&cli.StringFlag{
			Name:  flagExport,
			Usage: "write the visualization tree as JSON to `FILE`",
		},
		&cli.StringFlag{
			Name:  flagReport,
			Usage: "write the evaluation report as JSON to `FILE`",
		},
		&cli.StringFlag{
			Name:  flagPlotDir,
			Usage: "write robustness histograms to `DIR`",
		},
		&cli.BoolFlag{
			Name:  flagWatch,
			Usage: "re-evaluate whenever the scene or a grasp file changes",
		},
	}
}

func newLogger(c *cli.Context) logging.Logger {
	if c.Bool(flagDebug) {
		return logging.NewDebugLogger("grasp-eval")
	}
	return logging.NewLogger("grasp-eval")
}
