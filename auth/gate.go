package auth

import (
	"pairchat/domain/chat"
	"pairchat/repositories"
)

// Gate resolves the bearer credential presented at connection time.
// It is consulted exactly once, before any chat logic runs.
type Gate struct {
	tokens *Tokens
	users  repositories.IUserRepository
}

func NewGate(tokens *Tokens, users repositories.IUserRepository) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Resolve maps a raw credential to the caller's identity. The second
// return value is false for any credential that is missing, malformed,
// expired, or whose subject no longer exists. Resolve never fails past
// this boundary; callers must reject unauthenticated connections outright.
func (g *Gate) Resolve(credential string) (chat.Identity, bool) {
	if credential == "" {
		return chat.Identity{}, false
	}

	claims, err := g.tokens.Parse(credential)
	if err != nil {
		return chat.Identity{}, false
	}

	user, err := g.users.GetByID(chat.UserID(claims.UserID))
	if err != nil {
		return chat.Identity{}, false
	}
	return user.Identity(), true
}
