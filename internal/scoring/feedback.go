package scoring

import "github.com/antzucaro/matchr"

// WordFeedback describes how one reference word was heard. It is advisory and
// does not contribute to any score.
type WordFeedback struct {
	Expected    string  `json:"expected"`
	Heard       string  `json:"heard"`
	Similarity  float64 `json:"similarity"`
	SoundsAlike bool    `json:"sounds_alike"`
}

// WordBreakdown pairs words positionally, the same way Pronunciation does,
// and flags pairs whose Double Metaphone codes overlap.
func WordBreakdown(reference, spoken string) []WordFeedback {
	refWords := words(reference)
	spokenWords := words(spoken)
	out := make([]WordFeedback, 0, len(refWords))
	for i, ref := range refWords {
		fb := WordFeedback{Expected: ref}
		if i < len(spokenWords) {
			fb.Heard = spokenWords[i]
			fb.Similarity = round2(Similarity(ref, fb.Heard))
			fb.SoundsAlike = soundsAlike(ref, fb.Heard)
		}
		out = append(out, fb)
	}
	return out
}

func soundsAlike(a, b string) bool {
	if a == b {
		return true
	}
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)
	for _, x := range []string{ap, as} {
		if x == "" {
			continue
		}
		if x == bp || x == bs {
			return true
		}
	}
	return false
}
