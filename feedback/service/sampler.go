package service

import (
	"fmt"
	"math/rand"
	"strings"
)

var negKeywords = []string{
	"bad", "terrible", "slow", "worst", "hate", "poor",
	"broken", "crash", "issue", "problem", "unusable", "awful",
}

var posKeywords = []string{
	"good", "great", "excellent", "love", "amazing",
	"best", "perfect", "fast", "smooth", "easy",
}

// Sampler reduces large feedback sets to a representative subset that fits
// the model context window. Sampling is stratified by keyword polarity and
// seeded, so the same input always yields the same subset.
type Sampler struct {
	maxSamples int
	stratumCap int
	seed       int64
}

func NewSampler(maxSamples, stratumCap int, seed int64) *Sampler {
	return &Sampler{maxSamples: maxSamples, stratumCap: stratumCap, seed: seed}
}

// Sample returns the subset to analyze plus a note describing the reduction.
// Inputs at or below the cap pass through untouched with an empty note.
func (s *Sampler) Sample(reviews []string) ([]string, string) {
	if len(reviews) <= s.maxSamples {
		return reviews, ""
	}

	rng := rand.New(rand.NewSource(s.seed))

	// Strata partition the input: a review counted as negative never also
	// lands in the positive stratum, so nothing can be drawn twice.
	var negatives, positives, neutrals []string
	for _, r := range reviews {
		lower := strings.ToLower(r)
		switch {
		case containsAny(lower, negKeywords):
			negatives = append(negatives, r)
		case containsAny(lower, posKeywords):
			positives = append(positives, r)
		default:
			neutrals = append(neutrals, r)
		}
	}

	nNeg := min(len(negatives), s.stratumCap)
	nPos := min(len(positives), s.stratumCap)
	nNeu := max(0, s.maxSamples-nNeg-nPos)
	nNeu = min(nNeu, len(neutrals))

	sampled := make([]string, 0, nNeg+nPos+nNeu)
	sampled = append(sampled, pick(rng, negatives, nNeg)...)
	sampled = append(sampled, pick(rng, positives, nPos)...)
	sampled = append(sampled, pick(rng, neutrals, nNeu)...)

	rng.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})

	note := fmt.Sprintf("(Showing %d representative samples out of %d total)", len(sampled), len(reviews))
	return sampled, note
}

// pick draws n items without replacement.
func pick(rng *rand.Rand, items []string, n int) []string {
	if n >= len(items) {
		out := make([]string, len(items))
		copy(out, items)
		return out
	}
	out := make([]string, 0, n)
	for _, idx := range rng.Perm(len(items))[:n] {
		out = append(out, items[idx])
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
