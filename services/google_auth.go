package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/lestrrat-go/jwx/jwk"
)

const googleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

// GoogleTokenClaims is the identity extracted from a verified Google ID token
type GoogleTokenClaims struct {
	Subject string
	Email   string
	Name    string
}

// GoogleTokenVerifier validates Google ID tokens against Google's published
// JWKS and returns the caller's identity.
type GoogleTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleTokenClaims, error)
}

type googleTokenVerifier struct {
	certsURL string
}

func NewGoogleTokenVerifier() GoogleTokenVerifier {
	return &googleTokenVerifier{certsURL: googleCertsURL}
}

// Verify checks the token signature against the key the token's header names,
// then pulls out email and subject. Expiry is enforced by jwt.Parse.
func (v *googleTokenVerifier) Verify(ctx context.Context, idToken string) (*GoogleTokenClaims, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, errors.New("invalid token format")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid token header: %w", err)
	}
	var header struct {
		Kid string `json:"kid"`
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("invalid token header: %w", err)
	}

	jwkSet, err := jwk.Fetch(ctx, v.certsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Google public keys: %w", err)
	}
	key, found := jwkSet.LookupKeyID(header.Kid)
	if !found {
		return nil, errors.New("google public key not found for token")
	}
	var pubkey interface{}
	if err := key.Raw(&pubkey); err != nil {
		return nil, fmt.Errorf("failed to parse Google public key: %w", err)
	}

	parsed, err := jwt.Parse(idToken, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != header.Alg {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return pubkey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.New("invalid or expired Google token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}
	email, _ := claims["email"].(string)
	sub, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	if email == "" || sub == "" {
		return nil, errors.New("token is missing email or subject")
	}

	return &GoogleTokenClaims{
		Subject: sub,
		Email:   strings.ToLower(email),
		Name:    name,
	}, nil
}
