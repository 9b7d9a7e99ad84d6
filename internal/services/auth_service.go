package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"estatecrm/internal/middleware"
)

type AuthService interface {
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) bool
	GenerateToken(userID, memberID int, role string) (string, error)
}

type authService struct {
	jwtKey   []byte
	tokenTTL time.Duration
}

func NewAuthService(jwtKey []byte) AuthService {
	return &authService{jwtKey: jwtKey, tokenTTL: 24 * time.Hour}
}

func (s *authService) HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *authService) CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (s *authService) GenerateToken(userID, memberID int, role string) (string, error) {
	claims := &middleware.Claims{
		UserID:   userID,
		Role:     role,
		MemberID: memberID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtKey)
}
