package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pairchat/domain/chat"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MonMotDePasseTr0pSûr!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword", hash)
	req.NoError(err)
	req.False(match)
}

func TestRegistrationValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"alice", "ComplexPass123!"}, false},
		{"Username too short", RegisterRequest{"al", "ComplexPass123!"}, true},
		{"Username not alphanumeric", RegisterRequest{"alice!", "ComplexPass123!"}, true},
		{"Password too short", RegisterRequest{"alice", "Short1!"}, true},
		{"Missing digit", RegisterRequest{"alice", "NoDigitPassword!"}, true},
		{"Missing special char", RegisterRequest{"alice", "NoSpecialChar123"}, true},
		{"Missing uppercase", RegisterRequest{"alice", "nouppercase123!!"}, true},
		{"Password too long (edge case)", RegisterRequest{"alice", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestTokens_GenerateAndParse(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("test-secret", 24*time.Hour)
	user := chat.Identity{ID: 42, Username: "alice"}

	signed, err := tokens.Generate(user)
	req.NoError(err)
	req.NotEmpty(signed)

	claims, err := tokens.Parse(signed)
	req.NoError(err)
	req.Equal(int64(42), claims.UserID)
	req.Equal("42", claims.Subject)
	req.Equal("pairchat", claims.Issuer)
}

func TestTokens_RejectsExpired(t *testing.T) {
	req := require.New(t)
	tokens := NewTokens("test-secret", -1*time.Minute)

	signed, err := tokens.Generate(chat.Identity{ID: 1, Username: "alice"})
	req.NoError(err)

	_, err = tokens.Parse(signed)
	req.Error(err)
}

func TestTokens_RejectsWrongSecret(t *testing.T) {
	req := require.New(t)
	issuer := NewTokens("secret-a", time.Hour)
	verifier := NewTokens("secret-b", time.Hour)

	signed, err := issuer.Generate(chat.Identity{ID: 1, Username: "alice"})
	req.NoError(err)

	_, err = verifier.Parse(signed)
	req.Error(err)
}

// BenchmarkHashPassword measures the CPU/RAM cost of the argon2id settings.
func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
