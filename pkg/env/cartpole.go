package env

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"

	"github.com/emer/etable/etensor"

	"github.com/dkkim93/multisuit/pkg/spaces"
)

const (
	gravity        = 9.81
	massCart       = 1.0
	massPole       = 0.1
	poleLength     = 0.5
	totalMass      = massCart + massPole
	poleMassLength = massPole * poleLength
	forceMax       = 10.0
	tau            = 0.02

	xThreshold     = 2.4
	thetaThreshold = 12.0 * math.Pi / 180.0
	cartMaxSteps   = 500
)

type poleState struct {
	x, xDot, theta, thetaDot float64
}

func (s poleState) tensor() etensor.Tensor {
	t := etensor.New(etensor.FLOAT64, []int{4}, nil, nil)
	t.SetFloat1D(0, s.x)
	t.SetFloat1D(1, s.xDot)
	t.SetFloat1D(2, s.theta)
	t.SetFloat1D(3, s.thetaDot)
	return t
}

// MultiCartpole runs N independent cartpoles as one parallel environment,
// one agent per pole. An agent leaves the active set as soon as its pole
// falls or drifts off track; the episode ends when no agents remain.
type MultiCartpole struct {
	rng       *rand.Rand
	states    map[string]poleState
	steps     map[string]int
	active    []string
	possible  []string
	obsSpaces map[string]spaces.Space
	actSpaces map[string]spaces.Space
}

var _ ParallelEnv = (*MultiCartpole)(nil)
var _ Seeder = (*MultiCartpole)(nil)

func NewMultiCartpole(numAgents int, rng *rand.Rand) (*MultiCartpole, error) {
	if numAgents <= 0 {
		return nil, errors.New("multicartpole: number of agents must be greater than zero")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	e := &MultiCartpole{
		rng:       rng,
		obsSpaces: make(map[string]spaces.Space, numAgents),
		actSpaces: make(map[string]spaces.Space, numAgents),
	}
	for i := 0; i < numAgents; i++ {
		id := fmt.Sprintf("cart_%d", i)
		e.possible = append(e.possible, id)
		e.obsSpaces[id] = spaces.NewBox(-math.MaxFloat64, math.MaxFloat64, []int{4}, etensor.FLOAT64)
		e.actSpaces[id] = &spaces.Discrete{N: 2}
	}
	return e, nil
}

func (e *MultiCartpole) Reset() (*ResetResult, error) {
	e.states = make(map[string]poleState, len(e.possible))
	e.steps = make(map[string]int, len(e.possible))
	e.active = slices.Clone(e.possible)
	obs := make(map[string]etensor.Tensor, len(e.possible))
	for _, id := range e.possible {
		s := poleState{
			x:        e.rng.Float64()*0.1 - 0.05,
			xDot:     e.rng.Float64()*0.1 - 0.05,
			theta:    e.rng.Float64()*0.1 - 0.05,
			thetaDot: e.rng.Float64()*0.1 - 0.05,
		}
		e.states[id] = s
		obs[id] = s.tensor()
	}
	return &ResetResult{Observations: obs, Agents: slices.Clone(e.active)}, nil
}

func (e *MultiCartpole) Step(actions map[string]any) (*StepResult, error) {
	if e.states == nil {
		panic("multicartpole: Step called before Reset")
	}
	res := &StepResult{
		Observations: make(map[string]etensor.Tensor, len(e.active)),
		Rewards:      make(map[string]float64, len(e.active)),
		Dones:        make(map[string]bool, len(e.active)),
		Infos:        make(map[string]Info, len(e.active)),
	}
	var next []string
	for _, id := range e.active {
		action, _ := actions[id].(int)
		s := e.integrate(e.states[id], action)
		e.states[id] = s
		e.steps[id]++

		done := s.x < -xThreshold || s.x > xThreshold ||
			s.theta < -thetaThreshold || s.theta > thetaThreshold ||
			e.steps[id] >= cartMaxSteps
		reward := 1.0
		if done && e.steps[id] < cartMaxSteps {
			reward = 0.0
		}

		res.Observations[id] = s.tensor()
		res.Rewards[id] = reward
		res.Dones[id] = done
		res.Infos[id] = Info{"steps": e.steps[id]}
		if !done {
			next = append(next, id)
		}
	}
	e.active = next
	res.Agents = slices.Clone(next)
	return res, nil
}

func (e *MultiCartpole) integrate(s poleState, action int) poleState {
	force := forceMax
	if action == 0 {
		force = -forceMax
	}
	cosTheta := math.Cos(s.theta)
	sinTheta := math.Sin(s.theta)

	temp := (force + poleMassLength*s.thetaDot*s.thetaDot*sinTheta) / totalMass
	thetaAcc := (gravity*sinTheta - cosTheta*temp) /
		(poleLength * (4.0/3.0 - massPole*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/totalMass

	return poleState{
		x:        s.x + tau*s.xDot,
		xDot:     s.xDot + tau*xAcc,
		theta:    s.theta + tau*s.thetaDot,
		thetaDot: s.thetaDot + tau*thetaAcc,
	}
}

func (e *MultiCartpole) Render(mode string) (string, error) {
	var b strings.Builder
	for _, id := range e.active {
		s := e.states[id]
		fmt.Fprintf(&b, "%s: x=%+.3f theta=%+.3f\n", id, s.x, s.theta)
	}
	return b.String(), nil
}

func (e *MultiCartpole) Close() error { return nil }

func (e *MultiCartpole) ObservationSpaces() map[string]spaces.Space { return e.obsSpaces }
func (e *MultiCartpole) ActionSpaces() map[string]spaces.Space { return e.actSpaces }
func (e *MultiCartpole) Agents() []string { return slices.Clone(e.active) }
func (e *MultiCartpole) PossibleAgents() []string { return slices.Clone(e.possible) }

func (e *MultiCartpole) Seed(seed int64) error {
	e.rng = rand.New(rand.NewSource(seed))
	return nil
}
