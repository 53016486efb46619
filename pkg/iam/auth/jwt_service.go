package auth

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/authgate/pkg/config"
	"github.com/Abraxas-365/authgate/pkg/iam/scopes"
	"github.com/Abraxas-365/authgate/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

// JWTService implements TokenService with HMAC-signed JWTs.
type JWTService struct {
	secretKey      []byte
	algorithm      string
	accessTokenTTL time.Duration
	issuer         string
}

// NewJWTService creates a new JWT token service.
func NewJWTService(secretKey, algorithm string, accessTokenTTL time.Duration, issuer string) *JWTService {
	if algorithm == "" {
		algorithm = "HS256"
	}
	if accessTokenTTL == 0 {
		accessTokenTTL = 30 * time.Minute
	}
	if issuer == "" {
		issuer = "authgate"
	}

	return &JWTService{
		secretKey:      []byte(secretKey),
		algorithm:      algorithm,
		accessTokenTTL: accessTokenTTL,
		issuer:         issuer,
	}
}

// NewJWTServiceFromConfig creates the service from the JWT configuration block.
func NewJWTServiceFromConfig(cfg *config.JWTConfig) *JWTService {
	return NewJWTService(cfg.Secret, cfg.Algorithm, cfg.AccessTokenTTL, cfg.Issuer)
}

// JWTClaims is the wire shape of the claim set.
type JWTClaims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// IssueAccessToken mints a signed access token embedding subject, scope
// snapshot, and absolute expiry. The embedded scopes are a snapshot at
// issuance; validation re-reads the store.
func (j *JWTService) IssueAccessToken(userID kernel.UserID, scopeSet scopes.Set, ttl time.Duration) (string, error) {
	if userID.IsEmpty() {
		return "", ErrInvalidClaims().WithDetail("reason", "subject is required")
	}
	if ttl <= 0 {
		ttl = j.accessTokenTTL
	}

	now := time.Now()
	claims := JWTClaims{
		Scopes: scopeSet.Values(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	method := jwt.GetSigningMethod(j.algorithm)
	if method == nil {
		return "", ErrTokenGenerationFailed().WithDetail("algorithm", j.algorithm)
	}

	tokenString, err := jwt.NewWithClaims(method, claims).SignedString(j.secretKey)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithCause(err)
	}

	return tokenString, nil
}

// Decode validates and decodes an access token. Expired, malformed, and
// badly signed tokens all surface as the same error kind so callers cannot
// distinguish them; a missing or non-numeric subject is an invalid claim set.
func (j *JWTService) Decode(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		// The configured algorithm only — no algorithm-confusion acceptance.
		if token.Method.Alg() != j.algorithm {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithValidMethods([]string{j.algorithm}), jwt.WithExpirationRequired())

	if err != nil {
		return nil, ErrInvalidToken().WithCause(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken()
	}

	jwtClaims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, ErrInvalidToken()
	}

	if jwtClaims.Subject == "" {
		return nil, ErrInvalidClaims().WithDetail("reason", "subject missing")
	}
	userID, err := kernel.ParseUserID(jwtClaims.Subject)
	if err != nil || userID.IsEmpty() {
		return nil, ErrInvalidClaims().WithDetail("reason", "subject is not a valid user id")
	}

	claims := &TokenClaims{
		UserID: userID,
		Scopes: scopes.NewSet(jwtClaims.Scopes...),
	}
	if jwtClaims.IssuedAt != nil {
		claims.IssuedAt = jwtClaims.IssuedAt.Time
	}
	if jwtClaims.ExpiresAt != nil {
		claims.ExpiresAt = jwtClaims.ExpiresAt.Time
	}
	return claims, nil
}
