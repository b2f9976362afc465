package session

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stemremover/stem-remover-be/src/shared/lib/errors/mark"
)

// MaxAge matches the deployment policy: a session survives a year and there
// is no server side revocation, so a token stays valid until natural expiry.
const MaxAge = 365 * 24 * time.Hour

var NotResolvedMark = errors.New("Session token could not be resolved")

type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

type Layer struct {
	secret []byte
}

func NewLayer(secret string) Layer {
	return Layer{
		secret: []byte(secret),
	}
}

func (l Layer) Issue(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(MaxAge)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(l.secret)
	if err != nil {
		return "", errors.Wrap(err, "Failed to sign session token")
	}

	return tokenString, nil
}

// Resolve returns the user ID carried by the token. Missing, malformed and
// expired tokens all collapse into NotResolvedMark.
func (l Layer) Resolve(tokenString string) (int64, error) {
	if tokenString == "" {
		return 0, mark.Message(NotResolvedMark, "Session token is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return l.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return 0, mark.Wrap(err, NotResolvedMark, "Failed to parse session token")
	}

	if !token.Valid {
		return 0, mark.Message(NotResolvedMark, "Session token is invalid")
	}

	return claims.UserID, nil
}
