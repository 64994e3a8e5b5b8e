// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	hashIterations = 100000
	hashKeyLen     = 32
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrEmptyPassword   = errors.New("password must not be empty")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Salt derives the password salt from the user name.
// Users are never renamed, so the salt is stable for the account's lifetime.
func Salt(name string) []byte {
	sum := md5.Sum([]byte(name))
	return sum[:]
}

// HashPassword derives the stored credential with PBKDF2-HMAC-SHA256
func HashPassword(name, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	key := pbkdf2.Key([]byte(password), Salt(name), hashIterations, hashKeyLen, sha256.New)
	return hex.EncodeToString(key), nil
}

// VerifyPassword checks password against a credential from HashPassword
func VerifyPassword(name, password, stored string) error {
	want, err := hex.DecodeString(stored)
	if err != nil {
		return ErrInvalidPassword
	}
	got := pbkdf2.Key([]byte(password), Salt(name), hashIterations, hashKeyLen, sha256.New)
	if !hmac.Equal(got, want) {
		return ErrInvalidPassword
	}
	return nil
}
