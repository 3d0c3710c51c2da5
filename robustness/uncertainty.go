// Package robustness evaluates how grasp quality degrades when the object pose is perturbed.
package robustness

import (
	"math/rand/v2"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/rdk/utils"
	"gonum.org/v1/gonum/stat/distuv"

	"go.viam.com/grasp/object"
	"go.viam.com/grasp/robot"
	"go.viam.com/grasp/transform"
)

// Measure scores a contact set.
type Measure interface {
	SetContactPoints(contacts []robot.ContactInfo)
	GraspQuality() float64
	IsGraspForceClosure() bool
}

// PoseUncertainty generates and evaluates perturbed object poses.
type PoseUncertainty struct {
	cfg Config
	src rand.Source
}

// NewPoseUncertainty returns a seeded pose sampler.
func NewPoseUncertainty(cfg Config) (*PoseUncertainty, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PoseUncertainty{cfg: cfg, src: rand.NewPCG(cfg.Seed, cfg.Seed+1)}, nil
}

// Config returns the sampler configuration.
func (pu *PoseUncertainty) Config() Config {
	return pu.cfg
}

// sampler returns a function drawing values in [-limit, limit].
func (pu *PoseUncertainty) sampler(limit float64) func() float64 {
	if limit == 0 {
		return func() float64 { return 0 }
	}
	if strings.EqualFold(pu.cfg.Distribution, DistributionUniform) {
		d := distuv.Uniform{Min: -limit, Max: limit, Src: pu.src}
		return d.Rand
	}
	d := distuv.Normal{Mu: 0, Sigma: limit * pu.cfg.VariationFactor, Src: pu.src}
	return func() float64 {
		return utils.Clamp(d.Rand(), -limit, limit)
	}
}

// GeneratePoses returns exactly n perturbations of objectPose. Rotations are applied about the
// centroid of the contacts, or about the object origin when there are none.
func (pu *PoseUncertainty) GeneratePoses(objectPose mgl64.Mat4, contacts []robot.ContactInfo, n int) []mgl64.Mat4 {
	if n < 0 {
		n = 0
	}
	center := transform.Position(objectPose)
	if len(contacts) > 0 {
		center = r3.Vector{}
		for _, c := range contacts {
			center = center.Add(c.ObjectPoint)
		}
		center = center.Mul(1 / float64(len(contacts)))
	}
	toCenter := transform.Translation(center)
	fromCenter := transform.Translation(center.Mul(-1))

	pos := pu.sampler(pu.cfg.MaxPositionDelta)
	ori := pu.sampler(utils.DegToRad(pu.cfg.MaxOrientationDelta))
	poses := make([]mgl64.Mat4, 0, n)
	for i := 0; i < n; i++ {
		dp := r3.Vector{X: pos(), Y: pos(), Z: pos()}
		rot := transform.RPY(ori(), ori(), ori())
		delta := toCenter.Mul4(rot).Mul4(fromCenter).Mul4(transform.Translation(dp))
		poses = append(poses, delta.Mul4(objectPose))
	}
	return poses
}

// EvaluatePoses closes eef onto obj placed at each pose and scores the contacts with qm. Poses in
// which the open hand already penetrates the object count as collisions and score 0. The joint
// values of the hand are restored afterwards.
func (pu *PoseUncertainty) EvaluatePoses(
	eef *robot.EndEffector,
	obj *object.ManipulationObject,
	poses []mgl64.Mat4,
	qm Measure,
) Results {
	saved := eef.Robot().JointValues()
	defer eef.Robot().SetJointValues(saved)

	res := Results{NumPosesTested: len(poses), Qualities: make([]float64, 0, len(poses))}
	valid := make([]float64, 0, len(poses))
	for _, pose := range poses {
		eef.OpenActors()
		if eef.InCollisionAt(obj, pose) {
			res.NumColPoses++
			res.Qualities = append(res.Qualities, 0)
			continue
		}
		qm.SetContactPoints(eef.CloseActorsAt(obj, pose))
		q := qm.GraspQuality()
		if qm.IsGraspForceClosure() {
			res.NumForceClosure++
		}
		res.NumValidPoses++
		res.Qualities = append(res.Qualities, q)
		valid = append(valid, q)
	}
	res.summarize(valid)
	return res
}
