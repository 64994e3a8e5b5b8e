// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danielhkuo/quickly-elect/models"
)

var ErrInvalidCondition = errors.New("invalid condition")

// Validate checks a condition's kind and threshold
func Validate(kind models.ConditionKind, threshold int) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidCondition, kind)
	}
	if threshold < 0 {
		return fmt.Errorf("%w: threshold must be non-negative, got %d", ErrInvalidCondition, threshold)
	}
	if kind.IsPercent() && threshold > 100 {
		return fmt.Errorf("%w: percentage threshold must be 0-100, got %d", ErrInvalidCondition, threshold)
	}
	return nil
}

// Total sums the votes of all tallies
func Total(tallies []models.Tally) int {
	total := 0
	for _, t := range tallies {
		total += t.Votes
	}
	return total
}

// Evaluate returns the ids of the candidates meeting cond, ordered by vote
// count (descending, or ascending for bottom-n and under kinds). Candidates
// with equal counts keep their order in tallies. Evaluate has no side effects.
func Evaluate(cond models.Condition, tallies []models.Tally) ([]string, error) {
	if err := Validate(cond.Kind, cond.Threshold); err != nil {
		return nil, err
	}

	ranked := make([]models.Tally, len(tallies))
	copy(ranked, tallies)

	ascending := cond.Kind == models.BottomNVotes ||
		cond.Kind == models.PercentUnder ||
		cond.Kind == models.CountUnder
	sort.SliceStable(ranked, func(i, j int) bool {
		if ascending {
			return ranked[i].Votes < ranked[j].Votes
		}
		return ranked[i].Votes > ranked[j].Votes
	})

	var meets func(t models.Tally) bool
	switch cond.Kind {
	case models.TopNVotes, models.BottomNVotes:
		if cond.Threshold == 0 || len(ranked) == 0 {
			return []string{}, nil
		}
		if cond.Threshold >= len(ranked) {
			return ids(ranked), nil
		}
		// Everyone tied with the candidate at the cutoff goes through
		cutoff := ranked[cond.Threshold-1].Votes
		meets = func(t models.Tally) bool {
			if ascending {
				return t.Votes <= cutoff
			}
			return t.Votes >= cutoff
		}
	case models.PercentOver, models.PercentUnder:
		total := Total(ranked)
		if total == 0 {
			return []string{}, nil
		}
		// votes/total*100 compared against threshold without floating point
		meets = func(t models.Tally) bool {
			if cond.Kind == models.PercentOver {
				return t.Votes*100 > cond.Threshold*total
			}
			return t.Votes*100 < cond.Threshold*total
		}
	case models.CountOver:
		meets = func(t models.Tally) bool { return t.Votes > cond.Threshold }
	case models.CountUnder:
		meets = func(t models.Tally) bool { return t.Votes < cond.Threshold }
	}

	result := []string{}
	for _, t := range ranked {
		if meets(t) {
			result = append(result, t.CandidateID)
		}
	}
	return result, nil
}

func ids(tallies []models.Tally) []string {
	result := make([]string, len(tallies))
	for i, t := range tallies {
		result[i] = t.CandidateID
	}
	return result
}
