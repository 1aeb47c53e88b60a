package auth

import (
	"errors"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yoockh/sheetlens/internal/models"
)

var (
	ErrMissingSecret = errors.New("jwt secret is not configured")
	ErrInvalidToken  = errors.New("invalid token")
	ErrIssuer        = errors.New("invalid token issuer")
	ErrAudience      = errors.New("invalid token audience")
	ErrSubject       = errors.New("missing subject")
)

type supabaseClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Role         string         `json:"role"`         // usually "authenticated" / "anon"
	AppMetadata  map[string]any `json:"app_metadata"` // app role lives here: {"role":"admin"}
	UserMetadata map[string]any `json:"user_metadata"`
}

type VerifierConfig struct {
	Secret   string
	Issuer   string // optional
	Audience string // optional
}

// Verifier turns a Supabase-issued HS256 access token into an Identity.
type Verifier struct {
	cfg VerifierConfig
}

func NewVerifier(cfg VerifierConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

func (v *Verifier) Verify(raw string) (*models.Identity, error) {
	if v.cfg.Secret == "" {
		return nil, ErrMissingSecret
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	claims := &supabaseClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(v.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || tok == nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	if v.cfg.Issuer != "" && claims.Issuer != v.cfg.Issuer {
		return nil, ErrIssuer
	}
	if v.cfg.Audience != "" && !slices.Contains(claims.Audience, v.cfg.Audience) {
		return nil, ErrAudience
	}

	if claims.Subject == "" {
		return nil, ErrSubject
	}

	role := models.RoleUser
	if claims.AppMetadata != nil {
		if s, ok := claims.AppMetadata["role"].(string); ok && s != "" {
			role = models.UserRole(strings.ToLower(strings.TrimSpace(s)))
		}
	}

	return &models.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  role,
	}, nil
}
