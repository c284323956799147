package domain

import "math"

// Probability bounds applied before a probability becomes a price anchor.
const (
	MinProbability = 0.01
	MaxProbability = 0.99
)

// FairValueModel maps game state to a home-win probability. Implementations
// are deterministic; the result is not yet clamped.
type FairValueModel interface {
	Name() string
	Probability(g GameState) float64
}

// ScoreDiffModel is sigmoid(Intercept + Slope*diff / max(1, time)), with time
// measured in TimeUnit seconds.
type ScoreDiffModel struct {
	Intercept float64
	Slope     float64
	TimeUnit  float64
}

// NewScoreDiffModel returns the model with its standard coefficients and the
// clock measured in minutes.
func NewScoreDiffModel() ScoreDiffModel {
	return ScoreDiffModel{Intercept: 0.5, Slope: 0.4, TimeUnit: 60}
}

func (m ScoreDiffModel) Name() string { return "score_diff" }

func (m ScoreDiffModel) Probability(g GameState) float64 {
	unit := m.TimeUnit
	if unit <= 0 {
		unit = 1
	}
	timeLeft := max(1.0, g.TimeRemaining/unit)
	return logistic(m.Intercept + m.Slope*float64(g.ScoreDiff())/timeLeft)
}

// MultiFactorModel weighs the score differential by the fraction of the game
// left and adds home-court and possession terms. At zero time remaining the
// outcome is decided by the score.
type MultiFactorModel struct {
	Intercept  float64
	AwayCoef   float64
	DiffCoef   float64
	PossCoef   float64
	AwayTeam   bool // the contract is on the away team
	DefaultMax float64
}

// NewMultiFactorModel returns the fitted coefficients for the home contract.
func NewMultiFactorModel() MultiFactorModel {
	return MultiFactorModel{
		Intercept:  0.2775,
		AwayCoef:   0.4483,
		DiffCoef:   0.3208,
		PossCoef:   0.2894,
		DefaultMax: RegulationSeconds,
	}
}

func (m MultiFactorModel) Name() string { return "multi_factor" }

func (m MultiFactorModel) Probability(g GameState) float64 {
	if g.TimeRemaining <= 0 {
		if g.HomeScore > g.AwayScore {
			return 1.0
		}
		return 0.0
	}

	maxTime := g.MaxTime
	if maxTime <= 0 {
		maxTime = m.DefaultMax
	}
	t := 0.0
	if maxTime > 0 {
		t = g.TimeRemaining / maxTime
	}

	a := 0.0
	if m.AwayTeam {
		a = 1.0
	}
	p := 0.5
	switch g.Possession {
	case Home:
		p = 1.0
	case Away:
		p = 0.0
	}

	return logistic(m.Intercept - m.AwayCoef*a + m.DiffCoef*t*float64(g.ScoreDiff()) + m.PossCoef*p)
}

// logistic never returns exactly 0 or 1, so only the terminal branch of a
// model can produce a degenerate probability.
func logistic(x float64) float64 {
	p := 1 / (1 + math.Exp(-x))
	return max(math.Nextafter(0, 1), min(math.Nextafter(1, 0), p))
}

// ClampProbability bounds p into [MinProbability, MaxProbability].
func ClampProbability(p float64) float64 {
	if math.IsNaN(p) {
		return 0.5
	}
	return max(MinProbability, min(MaxProbability, p))
}

// Estimator holds the current fair value produced by a model.
type Estimator struct {
	model FairValueModel
	raw   float64
	prob  float64
}

// NewEstimator starts at even odds.
func NewEstimator(model FairValueModel) *Estimator {
	return &Estimator{model: model, raw: 0.5, prob: 0.5}
}

// Update recomputes the probability from g and returns the clamped value.
func (e *Estimator) Update(g GameState) float64 {
	e.raw = e.model.Probability(g)
	e.prob = ClampProbability(e.raw)
	return e.prob
}

// Reset returns the estimator to even odds.
func (e *Estimator) Reset() {
	e.raw = 0.5
	e.prob = 0.5
}

// Probability is the last clamped probability.
func (e *Estimator) Probability() float64 { return e.prob }

// Raw is the last unclamped model output.
func (e *Estimator) Raw() float64 { return e.raw }

// Fair is the clamped probability expressed as a contract price.
func (e *Estimator) Fair() float64 { return e.prob * 100 }

// Model returns the underlying model.
func (e *Estimator) Model() FairValueModel { return e.model }
