package domain

import "sort"

// ForecastSample is a single ensemble member's point value for the quantity
// a market resolves on (e.g. one GFS member's daily high in °F).
type ForecastSample struct {
	Source string  // provider/member identifier, e.g. "open-meteo/gfs#07"
	Value  float64 // forecast value in the market's units
	Weight float64 // relative weight; 0 is treated as 1.0
}

// Condition is the direction of a market's threshold question.
type Condition int

const (
	// ConditionAbove resolves YES when the realized value is >= threshold.
	ConditionAbove Condition = iota
	// ConditionBelow resolves YES when the realized value is < threshold.
	ConditionBelow
)

func (c Condition) String() string {
	if c == ConditionBelow {
		return "below"
	}
	return "above"
}

// ProbabilityEstimate is the output of any estimator: a probability for the
// YES outcome plus a confidence derived from how much the inputs agree.
type ProbabilityEstimate struct {
	Probability float64  // P(YES) in [0,1]
	Confidence  float64  // agreement measure in [0,1], NOT a probability
	Sources     []string // distinct input sources, sorted
	SampleCount int
	Factors     []Factor // per-input contributions, when the estimator has them
}

// EstimateEnsemble converts a set of forecast samples into a probability that
// the realized value satisfies the threshold condition.
//
// Probability is the weighted fraction of samples on the YES side. Confidence
// is how lopsided the ensemble is: the weighted majority share rescaled from
// [0.5, 1] to [0, 1], so a 50/50 split yields 0 and unanimity yields 1.
func EstimateEnsemble(samples []ForecastSample, threshold float64, cond Condition) (ProbabilityEstimate, error) {
	var yesW, totalW float64
	sources := make(map[string]struct{})

	for _, s := range samples {
		w := s.Weight
		if w <= 0 {
			w = 1.0
		}
		totalW += w

		above := s.Value >= threshold
		if (cond == ConditionAbove) == above {
			yesW += w
		}
		if s.Source != "" {
			sources[s.Source] = struct{}{}
		}
	}

	if totalW == 0 {
		return ProbabilityEstimate{}, ErrInsufficientData
	}

	prob := yesW / totalW
	majority := prob
	if majority < 0.5 {
		majority = 1 - majority
	}

	names := make([]string, 0, len(sources))
	for src := range sources {
		names = append(names, src)
	}
	sort.Strings(names)

	return ProbabilityEstimate{
		Probability: prob,
		Confidence:  (majority - 0.5) * 2,
		Sources:     names,
		SampleCount: len(samples),
	}, nil
}
