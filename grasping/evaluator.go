package grasping

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"

	"go.viam.com/grasp/object"
	"go.viam.com/grasp/quality"
	"go.viam.com/grasp/robot"
	"go.viam.com/grasp/robustness"
	"go.viam.com/grasp/transform"
	"go.viam.com/grasp/visualization"
)

// Options configures an evaluation run.
type Options struct {
	// FailFast aborts the run at the first grasp that cannot be evaluated.
	FailFast   bool
	Quality    quality.Options
	Robustness robustness.Config
}

// DefaultOptions returns the options used unless configured otherwise.
func DefaultOptions() Options {
	return Options{Quality: quality.DefaultOptions(), Robustness: robustness.DefaultConfig()}
}

// ObjectContext is the evaluation state shared by the grasps of one object: the object and a
// quality measure whose object properties are computed once.
type ObjectContext struct {
	Object  *object.ManipulationObject
	Measure *quality.WrenchSpace
}

// GraspResult is the evaluation of one grasp.
type GraspResult struct {
	Object       string
	GraspSet     string
	Grasp        string
	EndEffector  string
	Preshape     string
	TCPPose      mgl64.Mat4
	Approach     r3.Vector
	Contacts     []robot.ContactInfo
	Quality      float64
	ForceClosure bool
	Robustness   robustness.Results
	Node         visualization.Node
	// Clone is the end effector robot placed at the grasp, closed onto the object.
	Clone *robot.Robot
}

// GraspFailure records a grasp, or a whole object when Grasp is empty, that could not be
// evaluated.
type GraspFailure struct {
	Object   string
	GraspSet string
	Grasp    string
	Err      error
}

// RunResult collects the outcome of a run.
type RunResult struct {
	Grasps   []GraspResult
	Failures []GraspFailure
	// LastClone is the end effector robot of the last evaluated grasp.
	LastClone *robot.Robot
}

// Err combines every failure.
func (rr *RunResult) Err() error {
	var err error
	for _, f := range rr.Failures {
		err = multierr.Append(err, errors.Wrapf(f.Err, "object %q grasp %q", f.Object, f.Grasp))
	}
	return err
}

// ForceClosureCount returns the number of grasps in force closure.
func (rr *RunResult) ForceClosureCount() int {
	return lo.CountBy(rr.Grasps, func(g GraspResult) bool { return g.ForceClosure })
}

// Evaluator runs every grasp of every worklist object against one robot, in order.
type Evaluator struct {
	robot  *robot.Robot
	acc    *visualization.Accumulator
	opts   Options
	out    io.Writer
	logger logging.Logger
}

// NewEvaluator returns an evaluator printing human readable results to out and appending one
// visualization subtree per grasp to acc.
func NewEvaluator(
	r *robot.Robot,
	acc *visualization.Accumulator,
	opts Options,
	out io.Writer,
	logger logging.Logger,
) *Evaluator {
	return &Evaluator{robot: r, acc: acc, opts: opts, out: out, logger: logger}
}

// NewObjectContext prepares the quality measure of obj.
func (e *Evaluator) NewObjectContext(obj *object.ManipulationObject) (*ObjectContext, error) {
	qm := quality.NewWrenchSpace(obj, e.opts.Quality, e.logger.Sublogger("quality"))
	if err := qm.CalculateObjectProperties(); err != nil {
		return nil, err
	}
	return &ObjectContext{Object: obj, Measure: qm}, nil
}

// Run evaluates the worklist. Grasps that fail are recorded and skipped, unless FailFast is set,
// in which case the run stops and returns the failure. Cancelling ctx stops the run between
// grasps.
func (e *Evaluator) Run(ctx context.Context, worklist []*object.ManipulationObject) (*RunResult, error) {
	rr := &RunResult{}
	fmt.Fprintf(e.out, "End effectors: %v\n", lo.Map(e.robot.EndEffectors(), func(x *robot.EndEffector, _ int) string {
		return x.Name
	}))
	for _, obj := range worklist {
		fmt.Fprintf(e.out, "Evaluating grasps for %s\n", obj.Name())
		octx, err := e.NewObjectContext(obj)
		if err != nil {
			rr.Failures = append(rr.Failures, GraspFailure{Object: obj.Name(), Err: err})
			e.logger.Warnw("skipping object", "object", obj.Name(), "error", err)
			if e.opts.FailFast {
				return rr, err
			}
			continue
		}
		for _, set := range obj.AllGraspSets() {
			fmt.Fprintf(e.out, "Grasp set %s: %v\n", set.Name, lo.Map(set.Grasps(), func(g *object.Grasp, _ int) string {
				return g.Name
			}))
			for _, g := range set.Grasps() {
				if err := ctx.Err(); err != nil {
					return rr, err
				}
				res, err := e.EvaluateGrasp(octx, set, g)
				if err != nil {
					rr.Failures = append(rr.Failures, GraspFailure{Object: obj.Name(), GraspSet: set.Name, Grasp: g.Name, Err: err})
					e.logger.Warnw("grasp not evaluated", "object", obj.Name(), "grasp", g.Name, "error", err)
					if e.opts.FailFast {
						return rr, err
					}
					continue
				}
				rr.Grasps = append(rr.Grasps, res)
				rr.LastClone = res.Clone
			}
		}
	}
	return rr, nil
}

// EvaluateGrasp places a clone of the grasp's end effector at the grasp pose, closes it onto the
// object and scores the contacts. The grasp transformation is normalized against the object pose
// the first time it is evaluated.
func (e *Evaluator) EvaluateGrasp(octx *ObjectContext, set *object.GraspSet, g *object.Grasp) (GraspResult, error) {
	obj := octx.Object
	res := GraspResult{Object: obj.Name(), GraspSet: set.Name, Grasp: g.Name, EndEffector: g.EEFName, Preshape: g.PreshapeName}

	eef, err := e.robot.EndEffector(g.EEFName)
	if err != nil {
		return res, err
	}
	if g.PreshapeName != "" {
		if _, err := eef.LookupPreshape(g.PreshapeName); err != nil {
			return res, err
		}
	}

	mObject := obj.GlobalPose()
	mGrasp := g.TCPPoseGlobal(mObject)
	pose := g.Transformation()
	tcp2object := pose.Inv().Mul4(mObject)
	e.logger.Debugf("object pose:\n%s", transform.Format(mObject))
	e.logger.Debugf("tcp pose:\n%s", transform.Format(mGrasp))
	e.logger.Debugf("grasp transformation:\n%s", transform.Format(pose))
	e.logger.Debugf("tcp to object:\n%s", transform.Format(tcp2object))
	g.Normalize(mObject)
	mGrasp = g.TCPPoseGlobal(mObject)
	e.logger.Debugf("normalized tcp pose:\n%s", transform.Format(mGrasp))
	res.TCPPose = mGrasp

	approach := NewSurfaceNormalApproach(obj, eef)
	clone, ceef, err := approach.EEFRobotClone(g.PreshapeName)
	if err != nil {
		return res, err
	}
	if err := clone.SetGlobalPoseForRobotNode(ceef.TCP, mGrasp); err != nil {
		return res, err
	}
	res.Approach = approach.ApproachDirection(mGrasp)
	res.Clone = clone

	ceef.OpenActors()
	res.Contacts = ceef.CloseActors(obj)

	octx.Measure.SetContactPoints(res.Contacts)
	res.Quality = octx.Measure.GraspQuality()
	res.ForceClosure = octx.Measure.IsGraspForceClosure()
	verdict := color.New(color.FgRed).Sprint("IS NOT")
	if res.ForceClosure {
		verdict = color.New(color.FgGreen).Sprint("IS")
	}
	fmt.Fprintf(e.out, "Grasp %s %s in force closure\n", g.Name, verdict)
	fmt.Fprintf(e.out, "Quality: %g\n", res.Quality)

	pu, err := robustness.NewPoseUncertainty(e.opts.Robustness)
	if err != nil {
		return res, err
	}
	poses := pu.GeneratePoses(mObject, res.Contacts, e.opts.Robustness.Samples)
	res.Robustness = pu.EvaluatePoses(ceef, obj, poses, octx.Measure)
	fmt.Fprintln(e.out, "Robustness:")
	res.Robustness.Print(e.out)

	if e.acc != nil {
		res.Node = e.acc.AddGrasp(g.Name, mGrasp, ceef, res.Contacts)
	}
	return res, nil
}
