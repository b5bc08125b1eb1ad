package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserId   int64  `json:"user_id"`
	CampusId string `json:"campus_id"`
	Role     string `json:"role"`
	College  string `json:"college"`
	jwt.RegisteredClaims
}

func NewToken(secret string, userid int64, campusID, role, college string, ttlmin int) (string, error) {
	claims := Claims{
		UserId:   userid,
		CampusId: campusID,
		Role:     role,
		College:  college,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(time.Duration(ttlmin) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			Issuer:    "campus-ease",
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

func ParseToken(secret, token string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		// Ensure the token is using HMAC (HS256, HS384, HS512)
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
