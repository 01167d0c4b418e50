package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	AccessTokenLifetime  = 60 * time.Minute
	RefreshTokenLifetime = 24 * time.Hour
)

var jwtSecret string

func InitJWTSecret() error {
	jwtSecret = os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return nil
}

func generateToken(userID uint, email, role, tokenType string, lifetime time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    userID,
		"email":      email,
		"role":       role,
		"token_type": tokenType,
		"exp":        time.Now().Add(lifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

func GenerateAccessToken(userID uint, email, role string) (string, error) {
	return generateToken(userID, email, role, TokenTypeAccess, AccessTokenLifetime)
}

func GenerateRefreshToken(userID uint, email, role string) (string, error) {
	return generateToken(userID, email, role, TokenTypeRefresh, RefreshTokenLifetime)
}

// GenerateTokenPair issues the access/refresh pair returned by login.
func GenerateTokenPair(userID uint, email, role string) (access string, refresh string, err error) {
	access, err = GenerateAccessToken(userID, email, role)
	if err != nil {
		return "", "", err
	}

	refresh, err = GenerateRefreshToken(userID, email, role)
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// VerifyToken checks signature, expiry and the token_type claim. A refresh
// token is never accepted where an access token is expected and vice versa.
func VerifyToken(tokenString, expectedType string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if tokenType, _ := claims["token_type"].(string); tokenType != expectedType {
		return nil, fmt.Errorf("unexpected token type")
	}

	return token, nil
}

// UserIDFromToken extracts the user_id claim of a verified token.
func UserIDFromToken(token *jwt.Token) (uint, error) {
	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}

	userIDFloat, ok := claims["user_id"].(float64)

	if !ok {
		return 0, fmt.Errorf("invalid user ID in token claims")
	}

	return uint(userIDFloat), nil
}
