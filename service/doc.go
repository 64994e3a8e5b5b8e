// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package service implements the election domain: users and admin grants,
// the location tree, authorization scopes, elections and their round
// chains, candidacies, voter registrations and the vote ledger.
//
// Every mutating operation runs in one store transaction and either applies
// completely or not at all. Rule violations are returned as the sentinel
// errors in errors.go; ErrStoreUnavailable marks a transient failure.
package service
