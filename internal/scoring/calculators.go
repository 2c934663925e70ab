package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
)

// SecondsPerWord is the expected speaking pace used by the fluency score.
const SecondsPerWord = 0.55

// overspeedPenaltyPerRatio is the number of points FluencyPenalizeOverspeed
// subtracts per unit of ratio above 1.
const overspeedPenaltyPerRatio = 25.0

// FluencyPolicy selects how speech faster than the expected pace is scored.
type FluencyPolicy string

const (
	// FluencyClamp caps the score at 100 and does not penalise fast speech.
	FluencyClamp FluencyPolicy = "clamp"
	// FluencyPenalizeOverspeed subtracts (ratio-1)*25 points when the speaker
	// is faster than the expected pace.
	FluencyPenalizeOverspeed FluencyPolicy = "penalize_overspeed"
)

// IsValid reports whether p is one of the known policies.
func (p FluencyPolicy) IsValid() bool {
	return p == FluencyClamp || p == FluencyPenalizeOverspeed
}

// ParseFluencyPolicy accepts a policy name in any case, as read from config.
func ParseFluencyPolicy(s string) (FluencyPolicy, error) {
	p := FluencyPolicy(strings.TrimSpace(strings.ToLower(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("unknown fluency policy %q", s)
	}
	return p, nil
}

func words(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// round2 rounds to two decimals, ties to even on the exact decimal value of v,
// so 3.125 becomes 3.12 and 2.675 (stored as 2.67499...) becomes 2.67.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return math.RoundToEven(v*100) / 100
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Pronunciation pairs reference and spoken words by position and averages
// their Similarity. Reference words with no spoken counterpart score 0.
func Pronunciation(reference, spoken string) float64 {
	refWords := words(reference)
	spokenWords := words(spoken)
	if len(spokenWords) == 0 || len(refWords) == 0 {
		return 0.0
	}

	var sum float64
	for i, ref := range refWords {
		if i < len(spokenWords) {
			sum += Similarity(ref, spokenWords[i])
		}
	}
	return round2(sum / float64(len(refWords)) * 100)
}

// Fluency compares the time the reference should take at SecondsPerWord with
// the actual utterance duration.
func Fluency(reference string, duration time.Duration, policy FluencyPolicy) float64 {
	seconds := duration.Seconds()
	if seconds <= 0 {
		return 0.0
	}
	expected := float64(len(strings.Fields(reference))) * SecondsPerWord
	ratio := expected / seconds

	score := clamp(ratio*100, 0, 100)
	if policy == FluencyPenalizeOverspeed && ratio > 1 {
		score = clamp(score-(ratio-1)*overspeedPenaltyPerRatio, 0, 100)
	}
	return round2(score)
}

// Grammar is a keyword coverage heuristic: the share of reference tokens,
// counted per occurrence, that appear anywhere in the spoken transcript.
func Grammar(reference, spoken string) float64 {
	refWords := words(reference)
	spokenWords := words(spoken)
	if len(spokenWords) == 0 || len(refWords) == 0 {
		return 0.0
	}

	heard := make(map[string]struct{}, len(spokenWords))
	for _, w := range spokenWords {
		heard[w] = struct{}{}
	}
	correct := 0
	for _, w := range refWords {
		if _, ok := heard[w]; ok {
			correct++
		}
	}
	return round2(float64(correct) / float64(len(refWords)) * 100)
}

// Accuracy is the character-level matching-blocks ratio between the
// lower-cased reference and transcript.
func Accuracy(reference, spoken string) float64 {
	if strings.TrimSpace(spoken) == "" {
		return 0.0
	}
	m := difflib.NewMatcher(runeStrings(strings.ToLower(reference)), runeStrings(strings.ToLower(spoken)))
	return round2(m.Ratio() * 100)
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
