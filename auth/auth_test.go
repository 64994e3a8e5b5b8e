// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"bytes"
	"testing"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int // hex encoded length = byteLen * 2
	}{
		{"8 bytes", 8, 16},
		{"16 bytes", 16, 32},
		{"24 bytes", 24, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateID(tt.byteLen)
			if err != nil {
				t.Fatalf("GenerateID() error = %v", err)
			}
			if len(id) != tt.wantLen {
				t.Errorf("GenerateID() length = %d, want %d", len(id), tt.wantLen)
			}
			// Verify it's valid hex
			for _, c := range id {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("GenerateID() contains invalid hex char: %c", c)
				}
			}
		})
	}

	// Test randomness - two IDs should be different
	id1, _ := GenerateID(16)
	id2, _ := GenerateID(16)
	if id1 == id2 {
		t.Error("GenerateID() produced duplicate IDs (extremely unlikely)")
	}
}

func TestSalt(t *testing.T) {
	if !bytes.Equal(Salt("alice"), Salt("alice")) {
		t.Error("Salt() is not deterministic")
	}
	if bytes.Equal(Salt("alice"), Salt("bob")) {
		t.Error("Salt() produced same salt for different names")
	}
	if len(Salt("alice")) != 16 {
		t.Errorf("Salt() length = %d, want 16", len(Salt("alice")))
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("alice", "hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	// Deterministic for the same name
	again, _ := HashPassword("alice", "hunter2")
	if hash != again {
		t.Error("HashPassword() is not deterministic")
	}

	// Name is part of the salt
	other, _ := HashPassword("bob", "hunter2")
	if hash == other {
		t.Error("HashPassword() ignored the user name")
	}

	if _, err := HashPassword("alice", ""); err != ErrEmptyPassword {
		t.Errorf("HashPassword() with empty password error = %v, want %v", err, ErrEmptyPassword)
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, _ := HashPassword("alice", "hunter2")

	tests := []struct {
		name     string
		user     string
		password string
		stored   string
		wantErr  bool
	}{
		{"correct", "alice", "hunter2", hash, false},
		{"wrong password", "alice", "hunter3", hash, true},
		{"wrong user", "bob", "hunter2", hash, true},
		{"corrupt hash", "alice", "hunter2", "not-hex", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyPassword(tt.user, tt.password, tt.stored)
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
