package http_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tazhibayda/account-service/internal/auth"
	api "github.com/tazhibayda/account-service/internal/http"
	"github.com/tazhibayda/account-service/internal/metrics"
	"github.com/tazhibayda/account-service/internal/oauth"
	"github.com/tazhibayda/account-service/internal/repo"
	"github.com/tazhibayda/account-service/internal/security"
	"github.com/tazhibayda/account-service/internal/session"
)

const (
	clientURL = "https://app.example.com"
	localURL  = "http://localhost:5173"
)

var registry = func() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)
	return reg
}()

type stubGoogle struct {
	profile *oauth.Profile
	err     error
}

func (s *stubGoogle) AuthorizationURL() string {
	return "https://accounts.google.com/o/oauth2/auth?client_id=cid"
}

func (s *stubGoogle) ExchangeCodeForProfile(context.Context, string) (*oauth.Profile, error) {
	return s.profile, s.err
}

type captureMailer struct{ links chan string }

func (m *captureMailer) SendResetLink(_ context.Context, _, url string) error {
	m.links <- url
	return nil
}

type testEnv struct {
	Store  *repo.Memory
	Google *stubGoogle
	Mail   *captureMailer
	Issuer *session.Issuer
	Router *gin.Engine
}

func genKeyFile(t *testing.T) string {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), "key.pem")
	b := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k)})
	if err := os.WriteFile(p, b, 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func newTestEnv(t *testing.T, keys *security.KeyManager) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		Store:  repo.NewMemory(),
		Google: &stubGoogle{},
		Mail:   &captureMailer{links: make(chan string, 4)},
		Issuer: session.NewIssuer(session.Options{Secret: "test-secret", Keys: keys, TTL: time.Hour}),
	}
	svc := auth.NewService(env.Store, security.NewHasher(4), env.Issuer, env.Google, env.Mail, auth.Options{
		ClientURL:        clientURL,
		ClientLocalURL:   localURL,
		ExposeResetToken: true,
	}, zap.NewNop())
	h := api.NewHandler(svc, env.Issuer, env.Store)
	env.Router = api.NewRouter(h, api.RouterOptions{
		Origins:  []string{clientURL, localURL},
		Service:  "account-service-test",
		Gatherer: registry,
	})
	return env
}

type reply struct {
	Payload json.RawMessage `json:"payload"`
	Message string          `json:"message"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any, hdr map[string]string) (*httptest.ResponseRecorder, reply) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)

	var r reply
	if ct := w.Header().Get("Content-Type"); len(ct) >= 16 && ct[:16] == "application/json" {
		_ = json.Unmarshal(w.Body.Bytes(), &r)
	}
	return w, r
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("want %d, got %d body=%s", code, w.Code, w.Body.String())
	}
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}
