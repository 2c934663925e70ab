package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Default dimension weights for the per-utterance final score.
const (
	PronunciationWeight = 0.30
	FluencyWeight       = 0.25
	GrammarWeight       = 0.25
	AccuracyWeight      = 0.20
)

const weightSumTolerance = 1e-9

// Weights are the shares of each dimension in the final score. They must be
// non-negative and sum to 1.
type Weights struct {
	Pronunciation float64
	Fluency       float64
	Grammar       float64
	Accuracy      float64
}

// DefaultWeights is 30% pronunciation, 25% fluency, 25% grammar, 20% accuracy.
func DefaultWeights() Weights {
	return Weights{
		Pronunciation: PronunciationWeight,
		Fluency:       FluencyWeight,
		Grammar:       GrammarWeight,
		Accuracy:      AccuracyWeight,
	}
}

func (w Weights) Validate() error {
	for _, v := range []float64{w.Pronunciation, w.Fluency, w.Grammar, w.Accuracy} {
		if v < 0 {
			return errors.New("score weights must not be negative")
		}
	}
	sum := w.Pronunciation + w.Fluency + w.Grammar + w.Accuracy
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("score weights must sum to 1, got %v", sum)
	}
	return nil
}

// Scores holds the four dimension scores and their weighted final, each in
// [0, 100] with two decimals.
type Scores struct {
	Pronunciation float64 `json:"pronunciation"`
	Fluency       float64 `json:"fluency"`
	Grammar       float64 `json:"grammar"`
	Accuracy      float64 `json:"accuracy"`
	Final         float64 `json:"final"`
}

// UtteranceResult is the scored record of one answered prompt.
type UtteranceResult struct {
	Prompt     string         `json:"prompt"`
	Transcript string         `json:"transcript"`
	Duration   time.Duration  `json:"-"`
	Scores     Scores         `json:"scores"`
	Words      []WordFeedback `json:"words,omitempty"`
}

// Final combines the four dimension scores already present in s.
func Final(s Scores, w Weights) float64 {
	return round2(s.Pronunciation*w.Pronunciation +
		s.Fluency*w.Fluency +
		s.Grammar*w.Grammar +
		s.Accuracy*w.Accuracy)
}

// Overall is the rounded mean of per-utterance final scores.
func Overall(finals []float64) float64 {
	if len(finals) == 0 {
		return 0
	}
	var sum float64
	for _, f := range finals {
		sum += f
	}
	return round2(sum / float64(len(finals)))
}

// Scorer applies the four calculators and the aggregator with a fixed
// weighting and fluency policy. It holds no mutable state.
type Scorer struct {
	weights Weights
	fluency FluencyPolicy
}

func NewScorer(weights Weights, fluency FluencyPolicy) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if !fluency.IsValid() {
		return nil, fmt.Errorf("unknown fluency policy %q", fluency)
	}
	return &Scorer{weights: weights, fluency: fluency}, nil
}

func (s *Scorer) Score(reference, transcript string, duration time.Duration) UtteranceResult {
	scores := Scores{
		Pronunciation: Pronunciation(reference, transcript),
		Fluency:       Fluency(reference, duration, s.fluency),
		Grammar:       Grammar(reference, transcript),
		Accuracy:      Accuracy(reference, transcript),
	}
	scores.Final = Final(scores, s.weights)
	return UtteranceResult{
		Prompt:     reference,
		Transcript: transcript,
		Duration:   duration,
		Scores:     scores,
		Words:      WordBreakdown(reference, transcript),
	}
}
