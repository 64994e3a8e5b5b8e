// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally evaluates round conditions against vote counts.

# Evaluation

	advancing, err := tally.Evaluate(round.AdvancementCondition, tallies)

Rules per kind:

  - top-n-votes: the n highest counts; ties at the cutoff all advance
  - bottom-n-votes: the n lowest counts; ties at the cutoff all advance
  - percent-over / percent-under: share of the round's votes strictly
    above / below the threshold percentage
  - count-over / count-under: raw count strictly above / below the threshold

When no votes were cast every percent condition is met by nobody.
*/
package tally
