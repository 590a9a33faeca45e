package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_PassThroughBelowCap(t *testing.T) {
	s := NewSampler(80, 30, 42)
	reviews := []string{"great app", "terrible bug", "neutral note"}

	sampled, note := s.Sample(reviews)
	assert.Equal(t, reviews, sampled)
	assert.Empty(t, note)
}

func TestSampler_ReducesLargeInput(t *testing.T) {
	s := NewSampler(80, 30, 42)

	reviews := make([]string, 0, 200)
	for i := 0; i < 100; i++ {
		reviews = append(reviews, fmt.Sprintf("the sync keeps failing with a crash %d", i))
	}
	for i := 0; i < 60; i++ {
		reviews = append(reviews, fmt.Sprintf("love the new editor %d", i))
	}
	for i := 0; i < 40; i++ {
		reviews = append(reviews, fmt.Sprintf("version note entry %d", i))
	}

	sampled, note := s.Sample(reviews)
	require.Len(t, sampled, 80)
	assert.Equal(t, "(Showing 80 representative samples out of 200 total)", note)

	var neg, pos, neu int
	for _, r := range sampled {
		switch {
		case strings.Contains(r, "crash"):
			neg++
		case strings.Contains(r, "love"):
			pos++
		default:
			neu++
		}
	}
	assert.Equal(t, 30, neg)
	assert.Equal(t, 30, pos)
	assert.Equal(t, 20, neu)
}

func TestSampler_Deterministic(t *testing.T) {
	reviews := make([]string, 120)
	for i := range reviews {
		reviews[i] = fmt.Sprintf("entry number %d", i)
	}

	first, _ := NewSampler(80, 30, 42).Sample(reviews)
	second, _ := NewSampler(80, 30, 42).Sample(reviews)
	assert.Equal(t, first, second)
}

func TestSampler_MixedPolarityReviewsNeverDuplicated(t *testing.T) {
	s := NewSampler(80, 30, 42)

	// Every review hits both keyword lists; each must land in exactly one
	// stratum so the sample stays a subset of the input.
	reviews := make([]string, 100)
	for i := range reviews {
		reviews[i] = fmt.Sprintf("good but broken widget %d", i)
	}

	sampled, _ := s.Sample(reviews)
	seen := make(map[string]int, len(sampled))
	for _, r := range sampled {
		seen[r]++
		assert.Equal(t, 1, seen[r], "review sampled more than once: %q", r)
	}
	assert.Len(t, seen, len(sampled))
	// All 100 are negative-stratum, none positive, no neutrals to fill.
	assert.Len(t, sampled, 30)
}

func TestSampler_NeutralFillRespectsAvailability(t *testing.T) {
	s := NewSampler(80, 30, 42)

	reviews := make([]string, 0, 90)
	for i := 0; i < 85; i++ {
		reviews = append(reviews, fmt.Sprintf("broken beyond repair %d", i))
	}
	for i := 0; i < 5; i++ {
		reviews = append(reviews, fmt.Sprintf("plain entry %d", i))
	}

	sampled, _ := s.Sample(reviews)
	// 30 negatives plus all 5 neutrals; no positives exist.
	assert.Len(t, sampled, 35)
}
