package services

import "math"

// BKTParams are the Bayesian Knowledge Tracing parameters. The same set is
// used for both mastery scopes.
type BKTParams struct {
	Slip    float64
	Guess   float64
	Transit float64
}

func DefaultBKTParams() BKTParams {
	return BKTParams{Slip: 0.10, Guess: 0.20, Transit: 0.15}
}

// UpdatePKnow runs one BKT update pass: Bayes' rule on the correctness
// observation, then an adaptive asymmetric transition. On a correct answer
// the learning step shrinks as the prior approaches mastery; on a miss the
// decay grows with the prior (a failure at high mastery is more surprising).
func UpdatePKnow(prior float64, correct bool, p BKTParams) float64 {
	prior = clamp01(prior)

	var num, den float64
	if correct {
		num = prior * (1 - p.Slip)
		den = num + (1-prior)*p.Guess
	} else {
		num = prior * p.Slip
		den = num + (1-prior)*(1-p.Guess)
	}

	var posterior float64
	if den > 0 {
		posterior = num / den
	}

	var next float64
	if correct {
		scaledT := p.Transit * (1 - prior)
		next = posterior + (1-posterior)*scaledT
	} else {
		unlearn := 0.05 + 0.15*prior
		next = posterior * (1 - unlearn)
	}

	return clamp01(next)
}

// StoredPKnow converts a probability to its stored integer form (0..100).
func StoredPKnow(p float64) int {
	v := int(math.Round(clamp01(p) * 100))
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v
}

// PKnowFromStored converts a stored 0..100 value back to a probability.
func PKnowFromStored(v int) float64 {
	return clamp01(float64(v) / 100)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
