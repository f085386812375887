package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mirror/errors"
)

var secret = []byte("test-secret")

func TestToken_Roundtrip(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("alice", secret, time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	subject, err := ResolveSubject(token, secret)
	req.NoError(err)
	req.Equal("alice", subject)
}

func TestToken_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		token func() string
	}{
		{
			name:  "garbage credential",
			token: func() string { return "not-a-token" },
		},
		{
			name: "wrong secret",
			token: func() string {
				token, _ := GenerateToken("alice", []byte("other-secret"), time.Hour)
				return token
			},
		},
		{
			name: "expired token",
			token: func() string {
				token, _ := GenerateToken("alice", secret, -time.Minute)
				return token
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			_, err := ResolveSubject(tt.token(), secret)
			req.ErrorIs(err, errors.ErrUnauthenticated)
		})
	}
}

func TestPassword_Hash_And_Compare(t *testing.T) {
	req := require.New(t)
	password := "CorrectHorse42!"

	encoded, err := HashPassword(password)
	req.NoError(err)
	req.Contains(encoded, "$argon2id$")
	req.NotContains(encoded, password)

	match, err := ComparePassword(password, encoded)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongHorse42!", encoded)
	req.NoError(err)
	req.False(match)

	// Two hashes of the same password differ because of the salt
	other, err := HashPassword(password)
	req.NoError(err)
	req.NotEqual(encoded, other)
}

func TestComparePassword_Malformed_Hash(t *testing.T) {
	req := require.New(t)
	_, err := ComparePassword("anything", "not-an-encoded-hash")
	req.Error(err)
}

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name    string
		request RegisterRequest
		valid   bool
	}{
		{
			name:    "valid request",
			request: RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "ComplexPass123!"},
			valid:   true,
		},
		{
			name:    "username too short",
			request: RegisterRequest{Username: "al", Email: "alice@example.com", Password: "ComplexPass123!"},
		},
		{
			name:    "invalid email",
			request: RegisterRequest{Username: "alice", Email: "not-an-email", Password: "ComplexPass123!"},
		},
		{
			name:    "password too short",
			request: RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "Short1!"},
		},
		{
			name:    "password without special character",
			request: RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "ComplexPass1234"},
		},
		{
			name:    "password without number",
			request: RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "ComplexPassword!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := ValidateRegister(tt.request)
			if tt.valid {
				req.NoError(err)
			} else {
				req.Error(err)
			}
		})
	}
}
