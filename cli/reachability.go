package cli

import (
	"github.com/urfave/cli/v2"

	"go.viam.com/grasp/reachability"
	"go.viam.com/grasp/utils"
)

// ReachabilityAction runs the reachability command.
func ReachabilityAction(c *cli.Context) error {
	logger := newLogger(c)
	paths := utils.DataPaths(c.StringSlice(flagDataPath)).With(utils.DataPathsFromEnv()...)
	reached, err := paths.Resolve(c.String(flagReached))
	if err != nil {
		return err
	}
	logger.Debugf("scoring reached poses from %s", reached)
	res, err := reachability.Evaluate(paths, reached, c.String(flagDesired), reachability.DefaultRegions())
	if err != nil {
		return err
	}
	res.Print(c.App.Writer)
	return nil
}
