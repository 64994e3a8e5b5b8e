// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-elect/models"
)

func tallies(pairs ...any) []models.Tally {
	var result []models.Tally
	for i := 0; i < len(pairs); i += 2 {
		result = append(result, models.Tally{CandidateID: pairs[i].(string), Votes: pairs[i+1].(int)})
	}
	return result
}

func TestEvaluate(t *testing.T) {
	abc := tallies("A", 10, "B", 10, "C", 5)

	tests := []struct {
		name    string
		kind    models.ConditionKind
		thresh  int
		tallies []models.Tally
		want    []string
	}{
		{"top 1 with tie at cutoff", models.TopNVotes, 1, abc, []string{"A", "B"}},
		{"top 2 includes tie", models.TopNVotes, 2, abc, []string{"A", "B"}},
		{"top 3 is everyone", models.TopNVotes, 3, abc, []string{"A", "B", "C"}},
		{"top n larger than field", models.TopNVotes, 10, abc, []string{"A", "B", "C"}},
		{"top 0 is nobody", models.TopNVotes, 0, abc, []string{}},
		{"top n ordered by votes", models.TopNVotes, 1, tallies("A", 1, "B", 7, "C", 3), []string{"B"}},
		{"bottom 1", models.BottomNVotes, 1, abc, []string{"C"}},
		{"bottom 2 with tie", models.BottomNVotes, 2, abc, []string{"C", "A", "B"}},
		{"bottom 1 tie at cutoff", models.BottomNVotes, 1, tallies("A", 2, "B", 2, "C", 9), []string{"A", "B"}},
		{"percent over 35", models.PercentOver, 35, abc, []string{"A", "B"}},
		{"percent over exact share is not over", models.PercentOver, 50, tallies("A", 5, "B", 5), []string{}},
		{"percent under 30", models.PercentUnder, 30, abc, []string{"C"}},
		{"percent over with no votes", models.PercentOver, 0, tallies("A", 0, "B", 0), []string{}},
		{"percent under with no votes", models.PercentUnder, 100, tallies("A", 0, "B", 0), []string{}},
		{"count over is strict", models.CountOver, 5, abc, []string{"A", "B"}},
		{"count under is strict", models.CountUnder, 10, abc, []string{"C"}},
		{"count under zero is nobody", models.CountUnder, 0, abc, []string{}},
		{"no candidates", models.TopNVotes, 3, nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(models.Condition{Kind: tt.kind, Threshold: tt.thresh}, tt.tallies)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateDoesNotReorderInput(t *testing.T) {
	input := tallies("A", 1, "B", 9)
	_, err := Evaluate(models.Condition{Kind: models.TopNVotes, Threshold: 1}, input)
	require.NoError(t, err)
	assert.Equal(t, "A", input[0].CandidateID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		kind    models.ConditionKind
		thresh  int
		wantErr bool
	}{
		{"top n", models.TopNVotes, 3, false},
		{"percent 0", models.PercentOver, 0, false},
		{"percent 100", models.PercentUnder, 100, false},
		{"percent above 100", models.PercentOver, 101, true},
		{"negative", models.CountOver, -1, true},
		{"unknown kind", models.ConditionKind("most-charming"), 1, true},
		{"count above 100 is fine", models.CountOver, 5000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.kind, tt.thresh)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidCondition), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := Evaluate(models.Condition{Kind: models.PercentOver, Threshold: 200}, nil)
	assert.ErrorIs(t, err, ErrInvalidCondition)
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 25, Total(tallies("A", 10, "B", 10, "C", 5)))
	assert.Equal(t, 0, Total(nil))
}
