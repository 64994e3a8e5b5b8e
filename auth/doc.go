// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides credential hashing and random identifiers.

# Passwords

Credentials are PBKDF2-HMAC-SHA256 (100000 iterations) with a salt derived
from the user name:

	hash, err := auth.HashPassword(name, password)
	err = auth.VerifyPassword(name, password, hash)

VerifyPassword compares in constant time.

# Random Identifiers

GenerateID returns a hex string of n random bytes, used for confirmation
codes:

	code, err := auth.GenerateID(16) // 32 hex chars
*/
package auth
