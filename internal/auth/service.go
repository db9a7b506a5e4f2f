// Package auth holds the account flows: signup, password login, Google login,
// forgot-password and reset-password.
package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tazhibayda/account-service/internal/domain"
	"github.com/tazhibayda/account-service/internal/helper"
	"github.com/tazhibayda/account-service/internal/log"
	"github.com/tazhibayda/account-service/internal/metrics"
	"github.com/tazhibayda/account-service/internal/oauth"
	"github.com/tazhibayda/account-service/internal/repo"
	"github.com/tazhibayda/account-service/internal/security"
)

// Directory is the user persistence the flows need.
type Directory interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByResetToken(ctx context.Context, token string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateResetToken(ctx context.Context, id primitive.ObjectID, token *string, expiresAt *time.Time) error
}

type IdentityProvider interface {
	AuthorizationURL() string
	ExchangeCodeForProfile(ctx context.Context, code string) (*oauth.Profile, error)
}

type ResetLinkSender interface {
	SendResetLink(ctx context.Context, email, url string) error
}

type TokenIssuer interface {
	Issue(w http.ResponseWriter, uid, name, email string) (string, error)
}

type Options struct {
	ClientURL        string
	ClientLocalURL   string
	ResetTokenTTL    time.Duration
	ExposeResetToken bool
}

type Service struct {
	users    Directory
	hasher   *security.Hasher
	issuer   TokenIssuer
	provider IdentityProvider
	mailer   ResetLinkSender
	opts     Options
	log      *zap.Logger
	now      func() time.Time
}

func NewService(users Directory, hasher *security.Hasher, issuer TokenIssuer, provider IdentityProvider,
	mailer ResetLinkSender, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = log.L()
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = security.ResetTokenTTL
	}
	return &Service{
		users: users, hasher: hasher, issuer: issuer, provider: provider, mailer: mailer,
		opts: opts, log: logger, now: time.Now,
	}
}

// SetClock replaces the time source used for reset-token expiry.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

type SignupInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (_ *domain.User, err error) {
	defer s.observe(ctx, "signup", &err)

	if blank(in.Name) || blank(in.Email) || in.Password == "" || in.ConfirmPassword == "" {
		return nil, fail(KindInvalidInput, "All fields are required")
	}
	existing, err := s.users.FindUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, s.internal("Server error when signup", err)
	}
	if existing != nil {
		return nil, fail(KindConflict, "User already exist")
	}
	if in.Password != in.ConfirmPassword {
		return nil, fail(KindInvalidInput, "Password doesn't match")
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		Password:     hash,
		AuthProvider: domain.ProviderLocal,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrEmailExists) {
			return nil, fail(KindConflict, "User already exist")
		}
		return nil, s.internal("Server error when signup", err)
	}
	return u, nil
}

type LoginInput struct {
	Email    string
	Password string
	// HasSession is true when the request already carries a session cookie.
	HasSession bool
}

type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func (s *Service) Login(ctx context.Context, w http.ResponseWriter, in LoginInput) (_ *LoginResult, err error) {
	defer s.observe(ctx, "login", &err)

	if blank(in.Email) || in.Password == "" {
		return nil, fail(KindInvalidInput, "All fields are required")
	}
	if in.HasSession {
		return nil, fail(KindAlreadyAuthenticated, "You have logged in")
	}
	u, err := s.users.FindUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, s.internal("Server error when user login", err)
	}
	if !u.HasPassword() {
		return nil, fail(KindNotFound, "User not found, please create an account")
	}
	if !s.hasher.Verify(in.Password, u.Password) {
		return nil, fail(KindInvalidCredentials, "Invalid email or password")
	}

	uid := u.ID.Hex()
	tok, err := s.issuer.Issue(w, uid, u.Name, u.Email)
	if err != nil {
		return nil, s.internal("Server error when user login", err)
	}
	return &LoginResult{Token: tok, UserID: uid, Email: u.Email, Name: u.Name}, nil
}

func (s *Service) GoogleLoginURL() string { return s.provider.AuthorizationURL() }

// GoogleCallback finishes the authorization-code flow and returns the client
// URL to redirect to. The session token travels in the query string.
func (s *Service) GoogleCallback(ctx context.Context, w http.ResponseWriter, code, referer string) (_ string, err error) {
	defer s.observe(ctx, "google_callback", &err)

	if code == "" {
		return "", fail(KindInvalidInput, "Authorization code is missing")
	}
	p, err := s.provider.ExchangeCodeForProfile(ctx, code)
	switch {
	case errors.Is(err, oauth.ErrMissingEmail):
		return "", &Error{Kind: KindMissingEmail, Message: "User not found", Err: err}
	case err != nil:
		return "", &Error{Kind: KindProviderError, Message: "Google login failed", Err: err}
	}

	u, err := s.users.FindUserByEmail(ctx, p.Email)
	if err != nil {
		return "", s.internal("Server error during Google login", err)
	}
	if u == nil {
		u = &domain.User{Name: p.Name, Email: p.Email, AuthProvider: domain.ProviderGoogle}
		if err := s.users.CreateUser(ctx, u); err != nil {
			if !errors.Is(err, repo.ErrEmailExists) {
				return "", s.internal("Server error during Google login", err)
			}
			// lost a race with a concurrent first login; use the winner's record
			if u, err = s.users.FindUserByEmail(ctx, p.Email); err != nil || u == nil {
				return "", s.internal("Server error during Google login", err)
			}
		}
	}

	tok, err := s.issuer.Issue(w, u.ID.Hex(), u.Name, u.Email)
	if err != nil {
		return "", s.internal("Server error during Google login", err)
	}
	return s.resolveOrigin(referer) + "/callback-google?token=" + url.QueryEscape(tok), nil
}

// resolveOrigin picks the referer's origin when it is an allowed client, the
// default client URL otherwise.
func (s *Service) resolveOrigin(referer string) string {
	origin, ok := originOf(referer)
	if !ok {
		return s.opts.ClientURL
	}
	for _, allowed := range []string{s.opts.ClientURL, s.opts.ClientLocalURL} {
		if a, ok := originOf(allowed); ok && a == origin {
			return allowed
		}
	}
	return s.opts.ClientURL
}

// originOf reduces a URL to scheme://host[:port] with scheme and host
// lowercased and the scheme's default port removed.
func originOf(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		port = ""
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host, true
}

type ForgotResult struct {
	ResetPasswordToken        string    `json:"resetPasswordToken,omitempty"`
	ResetPasswordTokenExpired time.Time `json:"resetPasswordTokenExpired"`
}

// ForgotPassword issues a fresh reset token, replacing any previous one, and
// dispatches the link without waiting for delivery. The result is nil unless
// token exposure is enabled.
func (s *Service) ForgotPassword(ctx context.Context, email string) (_ *ForgotResult, err error) {
	defer s.observe(ctx, "forgot_password", &err)

	if blank(email) {
		return nil, fail(KindInvalidInput, "Email is required")
	}
	u, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, s.internal("Server error when user request forgot password", err)
	}
	if u == nil {
		return nil, fail(KindNotFound, "User not found")
	}

	tok, exp, err := security.NewResetToken(s.now(), s.opts.ResetTokenTTL)
	if err != nil {
		return nil, s.internal("Server error when user request forgot password", err)
	}
	if err := s.users.UpdateResetToken(ctx, u.ID, &tok, &exp); err != nil {
		return nil, s.internal("Server error when user request forgot password", err)
	}

	link := s.opts.ClientURL + "/reset-password/" + tok
	go s.dispatchResetLink(context.WithoutCancel(ctx), u.Email, link)

	if !s.opts.ExposeResetToken {
		return nil, nil
	}
	return &ForgotResult{ResetPasswordToken: tok, ResetPasswordTokenExpired: exp}, nil
}

func (s *Service) dispatchResetLink(ctx context.Context, email, link string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendResetLink(ctx, email, link); err != nil {
		log.WithDD(ctx, s.log).Warn("reset link dispatch failed",
			zap.String("email_ref", helper.EmailRef(email)), zap.Error(err))
	}
}

type ResetInput struct {
	Token           string
	Password        string
	ConfirmPassword string
}

// ResetPassword consumes the token and sets the new password. The token is
// cleared before the password write; if that second write fails the user has
// to request a new link.
func (s *Service) ResetPassword(ctx context.Context, in ResetInput) (_ *domain.User, err error) {
	defer s.observe(ctx, "reset_password", &err)

	if in.Password == "" || in.ConfirmPassword == "" {
		return nil, fail(KindInvalidInput, "All fields are required")
	}
	u, err := s.users.FindUserByResetToken(ctx, in.Token)
	if err != nil {
		return nil, s.internal("Server error when user reset password", err)
	}
	if u == nil {
		return nil, fail(KindNotFound, "Invalid link or user not found")
	}
	if u.ResetPasswordTokenExpired != nil && security.ResetTokenExpired(*u.ResetPasswordTokenExpired, s.now()) {
		return nil, fail(KindGone, "Your link had expire, please request a new one")
	}
	if in.Password != in.ConfirmPassword {
		return nil, fail(KindInvalidInput, "Password doesn't match")
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateResetToken(ctx, u.ID, nil, nil); err != nil {
		return nil, s.internal("Server error when user reset password", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return nil, s.internal("Server error when user reset password", err)
	}
	u.Password = hash
	u.ResetPasswordToken = nil
	u.ResetPasswordTokenExpired = nil
	return u, nil
}

// CurrentUser loads the account behind a verified session.
func (s *Service) CurrentUser(ctx context.Context, uid string) (*domain.User, error) {
	u, err := s.users.FindUserByID(ctx, uid)
	if err != nil {
		return nil, s.internal("Server error when loading user", err)
	}
	if u == nil {
		return nil, fail(KindNotFound, "User not found")
	}
	return u, nil
}

func (s *Service) hashPassword(pw string) (string, error) {
	hash, err := s.hasher.Hash(pw)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return "", fail(KindInvalidInput, "Password is too long")
	}
	if err != nil {
		return "", s.internal("Server error when hashing password", err)
	}
	return hash, nil
}

// internal wraps a collaborator failure; the cause is logged by observe, never returned to clients.
func (s *Service) internal(msg string, err error) *Error {
	if err == nil {
		err = errors.New("unexpected empty result")
	}
	return &Error{Kind: KindServerError, Message: msg, Err: err}
}

func (s *Service) observe(ctx context.Context, flow string, errp *error) {
	outcome := "ok"
	if *errp != nil {
		k := KindOf(*errp)
		outcome = k.String()
		if k == KindServerError || k == KindProviderError {
			log.WithDD(ctx, s.log).Error("auth flow failed",
				zap.String("flow", flow), zap.String("kind", outcome), zap.Error(*errp))
		}
	}
	metrics.AuthOutcomes.WithLabelValues(flow, outcome).Inc()
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
