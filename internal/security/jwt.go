package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func newClaims(uid, name, email string, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		UID: uid, Name: name, Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   uid,
		},
	}
}

func MakeAccess(secret, uid, name, email string, ttl time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, newClaims(uid, name, email, ttl))
	return t.SignedString([]byte(secret))
}

func ParseAccess(secret, token string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func MakeAccessRS256(km *KeyManager, uid, name, email string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, newClaims(uid, name, email, ttl))
	token.Header["kid"] = km.Active.Kid
	return token.SignedString(km.Active.Private)
}

// ParseAccessRS256 accepts tokens signed by either the active or the next key.
func ParseAccessRS256(km *KeyManager, token string) (*Claims, error) {
	keyfunc := func(tk *jwt.Token) (interface{}, error) {
		kid, _ := tk.Header["kid"].(string)
		if pk, ok := km.PublicByKid(kid); ok {
			return pk, nil
		}
		return nil, errors.New("no key by kid")
	}
	t, err := jwt.ParseWithClaims(token, &Claims{}, keyfunc, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	return c, nil
}
