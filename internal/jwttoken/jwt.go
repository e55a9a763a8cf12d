package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Coritp27/sysga-sub002/pkg/requestcontext"
)

// Claims are the access-token claims the verification edge cares about: who the
// actor is and which already-resolved role they carry. Everything else about
// sessions and login lives in the identity collaborator, not here.
type Claims struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Service validates (and, for development tooling, mints) HS256 tokens.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateToken mints a token for the given actor. Used by dev tooling and
// tests; production tokens come from the identity collaborator.
func (s *Service) GenerateToken(actorID string, role requestcontext.ActorRole, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ActorID: actorID,
		Role:    string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token, returning the resolved actor.
func (s *Service) ValidateToken(tokenString string) (requestcontext.ActorInfo, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	})
	if err != nil {
		return requestcontext.ActorInfo{}, err
	}
	if !token.Valid {
		return requestcontext.ActorInfo{}, errors.New("invalid token")
	}

	role := requestcontext.ActorRole(claims.Role)
	if !role.IsValid() {
		return requestcontext.ActorInfo{}, errors.New("unknown actor role")
	}
	return requestcontext.ActorInfo{ID: claims.ActorID, Role: role}, nil
}
