// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"errors"
	"log/slog"

	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/tally"
)

var (
	ErrNotAuthorized      = errors.New("not authorized")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrDuplicateUser = errors.New("user already exists")
	ErrUnknownUser   = errors.New("unknown user")

	ErrDuplicateLocation = errors.New("location already exists")
	ErrInvalidParent     = errors.New("parent location does not exist")
	ErrUnknownLocation   = errors.New("unknown location")
	ErrInvalidLocation   = errors.New("election location does not exist")

	ErrDuplicateElection = errors.New("election already exists")
	ErrUnknownElection   = errors.New("unknown election")
	ErrElectionNotFound  = ErrUnknownElection

	ErrUnknownCondition = errors.New("unknown condition")
	ErrInvalidCondition = tally.ErrInvalidCondition
	ErrUnknownRound     = errors.New("unknown round")
	ErrCycleDetected    = errors.New("round chain cycle detected")
	ErrRoundNotTerminal = errors.New("round is not the terminal round")

	ErrDuplicateCandidacy  = errors.New("candidate already registered")
	ErrUnknownCandidate    = errors.New("unknown candidate")
	ErrDuplicateVoter      = errors.New("voter already registered")
	ErrNotRegisteredVoter  = errors.New("not a registered voter")
	ErrQuotaExceeded       = errors.New("vote quota exceeded")
	ErrSelfVoteForbidden   = errors.New("candidates may not vote for themselves")
	ErrCandidateIneligible = errors.New("candidate is not eligible to vote")

	// ErrStoreUnavailable is transient; the operation was not applied
	ErrStoreUnavailable = db.ErrStoreUnavailable
)

var domainErrors = []error{
	ErrNotAuthorized, ErrInvalidInput, ErrInvalidCredentials,
	ErrDuplicateUser, ErrUnknownUser,
	ErrDuplicateLocation, ErrInvalidParent, ErrUnknownLocation, ErrInvalidLocation,
	ErrDuplicateElection, ErrUnknownElection,
	ErrUnknownCondition, ErrInvalidCondition, ErrUnknownRound, ErrCycleDetected, ErrRoundNotTerminal,
	ErrDuplicateCandidacy, ErrUnknownCandidate, ErrDuplicateVoter, ErrNotRegisteredVoter,
	ErrQuotaExceeded, ErrSelfVoteForbidden, ErrCandidateIneligible,
}

// IsDomainError reports whether err is a rule violation rather than an
// infrastructure failure.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// logFailure logs rejected writes at debug and everything else at error
func logFailure(op string, err error, args ...any) {
	args = append(args, "error", err)
	if IsDomainError(err) {
		slog.Debug(op+" rejected", args...)
		return
	}
	slog.Error(op+" failed", args...)
}
