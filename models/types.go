// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// DateLayout is the storage and wire format of an election's date of vote
const DateLayout = "2006-01-02"

// TopLevelDisplay renders the synthetic "no parent" location choice
const TopLevelDisplay = "-"

// ConditionKind selects how a Condition's threshold is applied
type ConditionKind string

const (
	TopNVotes    ConditionKind = "top-n-votes"
	BottomNVotes ConditionKind = "bottom-n-votes"
	PercentOver  ConditionKind = "percent-over"
	PercentUnder ConditionKind = "percent-under"
	CountOver    ConditionKind = "count-over"
	CountUnder   ConditionKind = "count-under"
)

// Valid reports whether k is a known kind.
func (k ConditionKind) Valid() bool {
	switch k {
	case TopNVotes, BottomNVotes, PercentOver, PercentUnder, CountOver, CountUnder:
		return true
	}
	return false
}

// IsPercent reports whether the threshold is a percentage.
func (k ConditionKind) IsPercent() bool {
	return k == PercentOver || k == PercentUnder
}

// Domain types

type Location struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

type User struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	PasswordHash          string    `json:"-"` // Never expose in JSON
	IsGlobalAdmin         bool      `json:"is_global_admin"`
	Active                bool      `json:"active"`
	ConfirmationCode      string    `json:"-"`
	CreatedAt             time.Time `json:"created_at"`
	AdministeredLocations []string  `json:"administered_locations"`
	AdministeredElections []string  `json:"administered_elections"`
}

// AdministersLocation reports a direct location-admin grant. Administering a
// location does not extend to its children.
func (u *User) AdministersLocation(locationID string) bool {
	for _, id := range u.AdministeredLocations {
		if id == locationID {
			return true
		}
	}
	return false
}

// AdministersElection reports a direct election-admin grant.
func (u *User) AdministersElection(electionID string) bool {
	for _, id := range u.AdministeredElections {
		if id == electionID {
			return true
		}
	}
	return false
}

type RuleSet struct {
	VotesPerVoter             int  `json:"votes_per_voter"`
	VotesPerVoterPerCandidate int  `json:"votes_per_voter_per_candidate"`
	CandidateCanVote          bool `json:"candidate_can_vote"`
	CandidateCanVoteForSelf   bool `json:"candidate_can_vote_for_self"`
}

// DefaultRuleSet is one vote per voter with no candidate restrictions
func DefaultRuleSet() RuleSet {
	return RuleSet{
		VotesPerVoter:             1,
		VotesPerVoterPerCandidate: 1,
		CandidateCanVote:          true,
		CandidateCanVoteForSelf:   true,
	}
}

type Election struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	LocationID      string    `json:"location_id"`
	PotentialVoters int       `json:"potential_voters"`
	DateOfVote      string    `json:"date_of_vote"`
	FirstRoundID    *string   `json:"first_round_id,omitempty"`
	RuleSet         RuleSet   `json:"rule_set"`
	CreatedAt       time.Time `json:"created_at"`
}

type Condition struct {
	ID        string        `json:"id"`
	Kind      ConditionKind `json:"kind"`
	Threshold int           `json:"threshold"`
}

// RoundCondition is an auxiliary condition whose effect lies outside voting
type RoundCondition struct {
	Condition Condition `json:"condition"`
	Effect    string    `json:"effect"`
}

type ElectionRound struct {
	ID                   string           `json:"id"`
	ElectionID           string           `json:"election_id"`
	Description          string           `json:"description"`
	AdvancementCondition Condition        `json:"advancement_condition"`
	OtherConditions      []RoundCondition `json:"other_conditions"`
	NextRoundID          *string          `json:"next_round_id,omitempty"`
}

// Terminal reports whether the round decides winners rather than advancement.
func (r *ElectionRound) Terminal() bool {
	return r.NextRoundID == nil
}

type Candidate struct {
	ID          string  `json:"id"`
	ElectionID  string  `json:"election_id"`
	RoundID     string  `json:"round_id"`
	UserID      *string `json:"user_id,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	CanVote     bool    `json:"can_vote"`
}

type Voter struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	ElectionID string `json:"election_id"`
	Revoked    bool   `json:"revoked"`
}

type Vote struct {
	ID          string    `json:"id"`
	VoterID     string    `json:"voter_id"`
	CandidateID string    `json:"candidate_id"`
	RoundID     string    `json:"round_id"`
	CastAt      time.Time `json:"cast_at"`
}

// Tally is the vote count of one candidate within one round
type Tally struct {
	CandidateID string `json:"candidate_id"`
	Votes       int    `json:"votes"`
}

type ConditionOutcome struct {
	Condition Condition `json:"condition"`
	Effect    string    `json:"effect"`
	Met       []string  `json:"met"`
}

type RoundResult struct {
	RoundID    string             `json:"round_id"`
	Terminal   bool               `json:"terminal"`
	TotalVotes int                `json:"total_votes"`
	Tallies    []Tally            `json:"tallies"`
	Advancing  []string           `json:"advancing"`
	Other      []ConditionOutcome `json:"other_conditions"`
}

type LocationChoice struct {
	ID      *string `json:"id"`
	Display string  `json:"display"`
}

type ElectionSummary struct {
	Election   Election `json:"election"`
	Location   string   `json:"location"`
	Candidates []string `json:"candidates"`
}

// Request types

type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Exactly one of the fields selects the role
type RoleRequest struct {
	Global     bool   `json:"global,omitempty"`
	LocationID string `json:"location_id,omitempty"`
	ElectionID string `json:"election_id,omitempty"`
}

type CreateLocationRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type CreateElectionRequest struct {
	Title           string   `json:"title"`
	LocationID      string   `json:"location_id"`
	PotentialVoters int      `json:"potential_voters"`
	DateOfVote      string   `json:"date_of_vote"`
	RuleSet         *RuleSet `json:"rule_set,omitempty"`
}

type CreateConditionRequest struct {
	Kind      ConditionKind `json:"kind"`
	Threshold int           `json:"threshold"`
}

type AttachRoundRequest struct {
	ConditionID string  `json:"condition_id"`
	Description string  `json:"description"`
	After       *string `json:"after,omitempty"`
	NextRoundID *string `json:"next_round_id,omitempty"`
}

type AddConditionRequest struct {
	ConditionID string `json:"condition_id"`
	Effect      string `json:"effect"`
}

// Exactly one of UserID and DisplayName is set
type RegisterCandidateRequest struct {
	UserID      *string `json:"user_id,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
}

type RegisterVoterRequest struct {
	UserID string `json:"user_id"`
}

// Response types

type CastVoteResponse struct {
	Vote    Vote `json:"vote"`
	Created bool `json:"created"`
}

type AncestorPathResponse struct {
	Path []string `json:"path"`
}

type AdvanceRoundResponse struct {
	Result   RoundResult `json:"result"`
	Promoted []Candidate `json:"promoted"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
