// Package session issues the signed session credential and carries it to the
// client as a cookie.
package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/tazhibayda/account-service/internal/security"
)

type Options struct {
	Secret     string
	Keys       *security.KeyManager // RS256 when set, HS256 with Secret otherwise
	TTL        time.Duration
	CookieName string
	Domain     string
}

type Issuer struct {
	opts Options
}

func NewIssuer(o Options) *Issuer {
	if o.TTL <= 0 {
		o.TTL = 24 * time.Hour
	}
	if o.CookieName == "" {
		o.CookieName = "token"
	}
	return &Issuer{opts: o}
}

func (i *Issuer) CookieName() string { return i.opts.CookieName }

// Issue signs a token for the user and attaches it to w as an http-only cookie.
func (i *Issuer) Issue(w http.ResponseWriter, uid, name, email string) (string, error) {
	var (
		tok string
		err error
	)
	if i.opts.Keys != nil {
		tok, err = security.MakeAccessRS256(i.opts.Keys, uid, name, email, i.opts.TTL)
	} else {
		tok, err = security.MakeAccess(i.opts.Secret, uid, name, email, i.opts.TTL)
	}
	if err != nil {
		return "", err
	}
	http.SetCookie(w, i.cookie(tok, int(i.opts.TTL/time.Second)))
	return tok, nil
}

func (i *Issuer) Parse(token string) (*security.Claims, error) {
	if token == "" {
		return nil, security.ErrInvalidToken
	}
	if i.opts.Keys != nil {
		return security.ParseAccessRS256(i.opts.Keys, token)
	}
	return security.ParseAccess(i.opts.Secret, token)
}

// Clear expires the session cookie on the client.
func (i *Issuer) Clear(w http.ResponseWriter) {
	http.SetCookie(w, i.cookie("", -1))
}

var ErrNoKeys = errors.New("session: no RSA keys configured")

func (i *Issuer) JWKS() (security.JWKSet, error) {
	if i.opts.Keys == nil {
		return security.JWKSet{}, ErrNoKeys
	}
	return i.opts.Keys.JWKS(), nil
}

// SameSite=None requires Secure; the client runs on a different origin.
func (i *Issuer) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     i.opts.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   i.opts.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}
