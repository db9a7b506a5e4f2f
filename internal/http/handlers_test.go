package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tazhibayda/account-service/internal/oauth"
	"github.com/tazhibayda/account-service/internal/security"
)

func Test_Signup_Login_Me(t *testing.T) {
	env := newTestEnv(t, nil)

	w, r := env.do(t, "POST", "/api/auth/signup",
		map[string]string{"name": "Ann", "email": "ann@x.com", "password": "pw123", "repassword": "pw123"}, nil)
	expectCode(t, w, http.StatusCreated)
	if strings.Contains(string(r.Payload), "password") {
		t.Fatalf("password leaked in payload: %s", r.Payload)
	}

	w, _ = env.do(t, "POST", "/api/auth/signup",
		map[string]string{"name": "Ann", "email": "ann@x.com", "password": "pw123", "repassword": "pw123"}, nil)
	expectCode(t, w, http.StatusBadRequest)

	w, r = env.do(t, "POST", "/api/auth/login", map[string]string{"email": "ann@x.com", "password": "pw123"}, nil)
	expectCode(t, w, http.StatusOK)
	var lr struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(r.Payload, &lr); err != nil || lr.Token == "" || lr.UserID == "" {
		t.Fatalf("login payload: %v %s", err, r.Payload)
	}
	c := sessionCookie(t, w)
	if c.Value != lr.Token || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteNoneMode {
		t.Fatalf("unexpected cookie %+v", c)
	}

	w, _ = env.do(t, "POST", "/api/auth/login", map[string]string{"email": "ann@x.com", "password": "wrong"}, nil)
	expectCode(t, w, http.StatusBadRequest)

	w, _ = env.do(t, "GET", "/api/auth/me", nil, map[string]string{"Authorization": "Bearer " + lr.Token})
	expectCode(t, w, http.StatusOK)

	w, _ = env.do(t, "GET", "/api/auth/me", nil, map[string]string{"Cookie": "token=" + lr.Token})
	expectCode(t, w, http.StatusOK)

	w, _ = env.do(t, "GET", "/api/auth/me", nil, nil)
	expectCode(t, w, http.StatusUnauthorized)
}

func Test_Login_WithSessionCookie_Rejected(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, "POST", "/api/auth/signup",
		map[string]string{"name": "Ann", "email": "ann@x.com", "password": "pw", "repassword": "pw"}, nil)

	w, r := env.do(t, "POST", "/api/auth/login", map[string]string{"email": "ann@x.com", "password": "pw"},
		map[string]string{"Cookie": "token=whatever"})
	expectCode(t, w, http.StatusBadRequest)
	if r.Message != "You have logged in" {
		t.Fatalf("message=%q", r.Message)
	}
}

func Test_Login_UnknownUser(t *testing.T) {
	env := newTestEnv(t, nil)
	w, r := env.do(t, "POST", "/api/auth/login", map[string]string{"email": "x@x.com", "password": "pw"}, nil)
	expectCode(t, w, http.StatusNotFound)
	if r.Payload != nil && string(r.Payload) != "null" {
		t.Fatalf("payload=%s", r.Payload)
	}
}

func Test_MalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)
	w, _ := env.do(t, "POST", "/api/auth/signup", "not an object", nil)
	expectCode(t, w, http.StatusBadRequest)
}

func Test_ForgotAndReset(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, "POST", "/api/auth/signup",
		map[string]string{"name": "Ann", "email": "ann@x.com", "password": "old", "repassword": "old"}, nil)

	w, _ := env.do(t, "POST", "/api/auth/forgot-password", map[string]string{"email": "nobody@x.com"}, nil)
	expectCode(t, w, http.StatusNotFound)

	w, r := env.do(t, "POST", "/api/auth/forgot-password", map[string]string{"email": "ann@x.com"}, nil)
	expectCode(t, w, http.StatusOK)
	var fr struct {
		Token   string     `json:"resetPasswordToken"`
		Expires *time.Time `json:"resetPasswordTokenExpired"`
	}
	if err := json.Unmarshal(r.Payload, &fr); err != nil || len(fr.Token) != 40 {
		t.Fatalf("forgot payload: %v %s", err, r.Payload)
	}
	if fr.Expires == nil || fr.Expires.Before(time.Now()) {
		t.Fatalf("forgot payload lacks a future expiry: %s", r.Payload)
	}
	if link := <-env.Mail.links; link != clientURL+"/reset-password/"+fr.Token {
		t.Fatalf("link=%s", link)
	}

	w, _ = env.do(t, "POST", "/api/auth/reset-password/"+fr.Token,
		map[string]string{"password": "new", "rePassword": "other"}, nil)
	expectCode(t, w, http.StatusBadRequest)

	w, _ = env.do(t, "POST", "/api/auth/reset-password/"+fr.Token,
		map[string]string{"password": "new", "rePassword": "new"}, nil)
	expectCode(t, w, http.StatusOK)

	w, _ = env.do(t, "POST", "/api/auth/reset-password/"+fr.Token,
		map[string]string{"password": "new", "rePassword": "new"}, nil)
	expectCode(t, w, http.StatusNotFound)

	w, _ = env.do(t, "POST", "/api/auth/login", map[string]string{"email": "ann@x.com", "password": "new"}, nil)
	expectCode(t, w, http.StatusOK)
}

func Test_GoogleStart_Redirects(t *testing.T) {
	env := newTestEnv(t, nil)
	w, _ := env.do(t, "GET", "/api/auth/google", nil, nil)
	expectCode(t, w, http.StatusFound)
	if loc := w.Header().Get("Location"); loc != env.Google.AuthorizationURL() {
		t.Fatalf("location=%s", loc)
	}
}

func Test_GoogleCallback(t *testing.T) {
	env := newTestEnv(t, nil)
	env.Google.profile = &oauth.Profile{Email: "new@x.com", Name: "New"}

	w, _ := env.do(t, "GET", "/api/auth/google/callback?code=abc", nil, map[string]string{"Referer": localURL + "/login"})
	expectCode(t, w, http.StatusFound)
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatal(err)
	}
	if loc.Scheme+"://"+loc.Host != localURL || loc.Path != "/callback-google" {
		t.Fatalf("location=%s", loc)
	}
	tok := loc.Query().Get("token")
	if c := sessionCookie(t, w); c.Value != tok {
		t.Fatalf("cookie and redirect token differ")
	}
	if _, err := env.Issuer.Parse(tok); err != nil {
		t.Fatalf("redirect token invalid: %v", err)
	}

	w, _ = env.do(t, "GET", "/api/auth/google/callback?code=abc", nil, map[string]string{"Referer": "https://evil.test/"})
	expectCode(t, w, http.StatusFound)
	if !strings.HasPrefix(w.Header().Get("Location"), clientURL+"/callback-google?token=") {
		t.Fatalf("fallback location=%s", w.Header().Get("Location"))
	}

	w, _ = env.do(t, "GET", "/api/auth/google/callback", nil, nil)
	expectCode(t, w, http.StatusBadRequest)

	env.Google.err = errors.Join(oauth.ErrProvider, errors.New("invalid_grant"))
	w, _ = env.do(t, "GET", "/api/auth/google/callback?code=bad", nil, nil)
	expectCode(t, w, http.StatusBadGateway)

	env.Google.err = oauth.ErrMissingEmail
	w, _ = env.do(t, "GET", "/api/auth/google/callback?code=x", nil, nil)
	expectCode(t, w, http.StatusNotFound)
}

func Test_Logout_ClearsCookie(t *testing.T) {
	env := newTestEnv(t, nil)
	w, _ := env.do(t, "POST", "/api/auth/logout", nil, nil)
	expectCode(t, w, http.StatusOK)
	if c := sessionCookie(t, w); c.Value != "" || c.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", c)
	}
}

func Test_JWKS(t *testing.T) {
	env := newTestEnv(t, nil)
	w, _ := env.do(t, "GET", "/.well-known/jwks.json", nil, nil)
	expectCode(t, w, http.StatusNotFound)

	km, err := security.NewKeyManager("kidA", genKeyFile(t), "kidN", genKeyFile(t))
	if err != nil {
		t.Fatal(err)
	}
	env = newTestEnv(t, km)
	w, _ = env.do(t, "GET", "/.well-known/jwks.json", nil, nil)
	expectCode(t, w, http.StatusOK)
	var set security.JWKSet
	if err := json.Unmarshal(w.Body.Bytes(), &set); err != nil || len(set.Keys) != 2 {
		t.Fatalf("jwks: %v %s", err, w.Body.String())
	}
}

func Test_Ops(t *testing.T) {
	env := newTestEnv(t, nil)

	w, _ := env.do(t, "GET", "/healthz", nil, nil)
	expectCode(t, w, http.StatusOK)

	w, _ = env.do(t, "GET", "/", nil, nil)
	expectCode(t, w, http.StatusOK)

	w, _ = env.do(t, "GET", "/metrics", nil, nil)
	expectCode(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("metrics missing request counter")
	}

	w, _ = env.do(t, "GET", "/healthz", nil, map[string]string{"X-Request-ID": "req-1"})
	if got := w.Header().Get("X-Request-ID"); got != "req-1" {
		t.Fatalf("request id=%q", got)
	}
}

func Test_CORS_AllowsClientOrigin(t *testing.T) {
	env := newTestEnv(t, nil)
	hdr := map[string]string{"Origin": localURL, "Access-Control-Request-Method": "POST"}
	w, _ := env.do(t, "OPTIONS", "/api/auth/login", nil, hdr)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != localURL {
		t.Fatalf("allow-origin=%q code=%d", got, w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("credentials not allowed")
	}

	hdr["Origin"] = "https://evil.test"
	w, _ = env.do(t, "OPTIONS", "/api/auth/login", nil, hdr)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin allowed: %q", got)
	}
}
