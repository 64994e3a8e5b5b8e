// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers for the Quickly Elect API.

Handlers decode JSON, call the service and encode the result. They hold no
rules of their own beyond choosing who may register candidates and voters.

  - UserHandler: registration and admin roles
  - LocationHandler: location tree and authorized choices
  - ElectionHandler: elections, conditions and round chains
  - VotingHandler: candidates, voters and votes
  - ResultsHandler: round results and advancement

A vote sent with an X-Idempotency-Key header can be retried safely; the
replay answers 200 with the original vote instead of 201.
*/
package handlers
