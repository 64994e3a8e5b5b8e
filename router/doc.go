// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Elect API.

	mux := router.NewRouter(store)

Every route except GET /health, GET / and POST /users requires HTTP Basic
credentials.

	POST   /users                         register
	POST   /users/{id}/admin              grant a role
	DELETE /users/{id}/admin              revoke a role
	GET    /locations/choices             authorized locations
	POST   /locations                     create a location
	GET    /locations/{id}/path           ancestor path
	GET    /elections                     list elections
	POST   /elections                     create an election
	POST   /conditions                    get or create a condition
	POST   /elections/{id}/rounds         attach a round
	GET    /elections/{id}/rounds         round chain
	POST   /rounds/{id}/conditions        add an auxiliary condition
	POST   /rounds/{id}/candidates        register a candidate
	POST   /elections/{id}/voters         register a voter
	DELETE /elections/{id}/voters/{user}  revoke a voter
	POST   /candidates/{id}/votes         cast a vote
	GET    /rounds/{id}/results           round results
	POST   /rounds/{id}/advance           advance a round
*/
package router
