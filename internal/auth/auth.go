package auth

import "github.com/golang-jwt/jwt/v5"

// Authenticator issues and checks the bearer tokens customers send to the
// payment endpoints. Tokens are minted by the account service; GenerateToken
// exists for tooling and tests.
type Authenticator interface {
	GenerateToken(userID int64) (string, error)
	ValidateAccessToken(token string) (*jwt.Token, error)
}
