package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Verifier validates access tokens issued by the auth service and extracts
// the caller identity from their claims.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

func NewVerifier(secret, issuer, audience string) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		leeway:   30 * time.Second, // small clock skew between services
	}
}

// Verify parses and validates a raw JWT and returns the identity it asserts.
// Expected claims: user_id, email, role, optional place_id, type=access.
// Tokens must carry an exp claim; access tokens always do.
func (v *Verifier) Verify(raw string) (Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithLeeway(v.leeway), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	if v.issuer != "" && claims["iss"] != v.issuer {
		return Identity{}, ErrInvalidToken
	}
	if v.audience != "" && claims["aud"] != v.audience {
		return Identity{}, ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != "" && typ != "access" {
		return Identity{}, ErrInvalidToken
	}

	rawUserID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	role, _ := claims["role"].(string)
	switch Role(role) {
	case RoleUser, RolePartner, RoleAdmin:
	default:
		return Identity{}, ErrInvalidToken
	}

	id := Identity{
		UserID: userID,
		Role:   Role(role),
	}
	id.Email, _ = claims["email"].(string)

	if rawPlaceID, _ := claims["place_id"].(string); rawPlaceID != "" {
		placeID, err := uuid.Parse(rawPlaceID)
		if err != nil {
			return Identity{}, ErrInvalidToken
		}
		id.PlaceID = &placeID
	}

	return id, nil
}
