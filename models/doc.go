// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, request, and response types.

# Domain Types

  - Location: node of the administrative tree (parent pointer)
  - User: account with global-admin flag and direct admin grants
  - Election: vote bound to a location, a date and a RuleSet
  - RuleSet: votes per voter, votes per candidate, candidate voting rules
  - Condition: ConditionKind plus threshold, shared between rounds
  - ElectionRound: one stage of an election, linked to the next stage
  - Candidate, Voter, Vote: the voting ledger
  - Tally, RoundResult: evaluated round outcomes

# Condition Kinds

	TopNVotes    = "top-n-votes"
	BottomNVotes = "bottom-n-votes"
	PercentOver  = "percent-over"
	PercentUnder = "percent-under"
	CountOver    = "count-over"
	CountUnder   = "count-under"

# Relationships

	location 1──* location (parent_id)
	location 1──* election
	election 1──* election_round (chain via next_round_id)
	election_round 1──* candidate
	election 1──* voter
	voter 1──* vote *──1 candidate
*/
package models
