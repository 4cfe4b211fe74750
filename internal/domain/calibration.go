package domain

import (
	"fmt"
	"time"
)

// CalibrationBucket aggregates settled trades whose entry model probability
// fell in [Low, High).
type CalibrationBucket struct {
	Low          float64 `json:"low"`
	High         float64 `json:"high"`
	Count        int     `json:"count"`
	PredictedAvg float64 `json:"predicted_avg"`
	ActualRate   float64 `json:"actual_rate"` // realized win rate in the bucket
}

// Gap is predicted minus realized: positive means the model was overconfident
// in this probability range.
func (b CalibrationBucket) Gap() float64 {
	return b.PredictedAvg - b.ActualRate
}

// AdviceAction is the direction a calibration finding points in. Advice is
// advisory output only; thresholds are never adjusted automatically.
type AdviceAction string

const (
	AdviceRaiseMinEdge AdviceAction = "raise_min_edge"
	AdviceLowerMinEdge AdviceAction = "lower_min_edge"
)

// CalibrationAdvice is one finding from a calibration pass.
type CalibrationAdvice struct {
	Bucket  CalibrationBucket `json:"bucket"`
	Action  AdviceAction      `json:"action"`
	Gap     float64           `json:"gap"`
	Message string            `json:"message"`
}

// CalibrationReport is the output of one calibration pass over settled trades.
type CalibrationReport struct {
	Buckets     []CalibrationBucket `json:"buckets"`
	BrierScore  float64             `json:"brier_score"`
	SampleCount int                 `json:"sample_count"`
	Advice      []CalibrationAdvice `json:"advice"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// Calibrate scores settled trades against their entry-time model
// probabilities. Buckets partition [0,1] evenly; the Brier score is the mean
// squared distance between predicted probability and the 0/1 outcome (lower
// is better, 0.25 is the coin-flip baseline). Buckets with fewer than
// minSamples trades produce no advice; small buckets are noise.
func Calibrate(trades []Trade, bucketCount int, margin float64, minSamples int) CalibrationReport {
	if bucketCount <= 0 {
		bucketCount = 10
	}

	buckets := make([]CalibrationBucket, bucketCount)
	sums := make([]float64, bucketCount)
	wins := make([]int, bucketCount)
	for i := range buckets {
		buckets[i].Low = float64(i) / float64(bucketCount)
		buckets[i].High = float64(i+1) / float64(bucketCount)
	}

	var brierSum float64
	settled := 0
	for _, t := range trades {
		if !t.Settled || t.Result == ResultPending {
			continue
		}
		settled++

		outcome := 0.0
		if t.Result == ResultWin {
			outcome = 1.0
		}
		p := t.ModelProbability
		brierSum += (p - outcome) * (p - outcome)

		idx := int(p * float64(bucketCount))
		if idx >= bucketCount {
			idx = bucketCount - 1
		}
		if idx < 0 {
			idx = 0
		}
		buckets[idx].Count++
		sums[idx] += p
		if outcome == 1.0 {
			wins[idx]++
		}
	}

	report := CalibrationReport{
		Buckets:     buckets,
		SampleCount: settled,
		GeneratedAt: time.Now().UTC(),
	}
	if settled == 0 {
		return report
	}
	report.BrierScore = brierSum / float64(settled)

	for i := range buckets {
		b := &buckets[i]
		if b.Count == 0 {
			continue
		}
		b.PredictedAvg = sums[i] / float64(b.Count)
		b.ActualRate = float64(wins[i]) / float64(b.Count)

		if b.Count < minSamples {
			continue
		}
		gap := b.Gap()
		if gap > margin {
			report.Advice = append(report.Advice, CalibrationAdvice{
				Bucket: *b,
				Action: AdviceRaiseMinEdge,
				Gap:    gap,
				Message: fmt.Sprintf(
					"bucket [%.1f,%.1f): predicted %.0f%% but won %.0f%%: model overconfident, consider raising min edge",
					b.Low, b.High, b.PredictedAvg*100, b.ActualRate*100),
			})
		} else if gap < -margin {
			report.Advice = append(report.Advice, CalibrationAdvice{
				Bucket: *b,
				Action: AdviceLowerMinEdge,
				Gap:    gap,
				Message: fmt.Sprintf(
					"bucket [%.1f,%.1f): predicted %.0f%% but won %.0f%%: model underconfident, min edge may be filtering good trades",
					b.Low, b.High, b.PredictedAvg*100, b.ActualRate*100),
			})
		}
	}
	report.Buckets = buckets
	return report
}
