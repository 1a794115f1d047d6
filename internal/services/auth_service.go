package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"shopfront/internal/apperr"
	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/notify"
	"shopfront/internal/repos"
	"shopfront/internal/token"
	"shopfront/internal/validate"
)

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
}

// Session is what the API hands back after register, login and refresh.
type Session struct {
	token.Pair
	User *domain.User `json:"user"`
}

type AuthService struct {
	Users      *repos.UserRepo
	Resets     *repos.ResetRepo
	Tokens     *token.Issuer
	Revoked    token.Blocklist
	Notifier   notify.Notifier
	BcryptCost int
	ResetTTL   time.Duration
	PublicURL  string

	now func() time.Time
}

func NewAuthService(users *repos.UserRepo, resets *repos.ResetRepo, tokens *token.Issuer, revoked token.Blocklist,
	n notify.Notifier, bcryptCost int, resetTTL time.Duration, publicURL string) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if n == nil {
		n = notify.Discard{}
	}
	return &AuthService{
		Users: users, Resets: resets, Tokens: tokens, Revoked: revoked, Notifier: n,
		BcryptCost: bcryptCost, ResetTTL: resetTTL, PublicURL: strings.TrimRight(publicURL, "/"),
		now: time.Now,
	}
}

// Register creates a customer account.
func (s *AuthService) Register(in RegisterInput) (*domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, apperr.Validation("email", "Invalid email address")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.BcryptCost)
	if err != nil {
		return nil, apperr.Database("hash password", err)
	}
	u := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Hash:      string(hash),
		Role:      domain.RoleCustomer,
		IsActive:  true,
	}
	if err := s.Users.Create(u); err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflict("Email %s already exists", email).WithCode("duplicate_email")
		}
		return nil, apperr.Database("create user", err)
	}
	return u, nil
}

// checkCredentials returns the user for a matching email and password.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) checkCredentials(email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.Users.ByEmail(email)
	if err != nil {
		if repos.IsNotFound(err) {
			return nil, apperr.ErrBadCredentials
		}
		return nil, apperr.Database("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, apperr.ErrBadCredentials
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("Account is deactivated").WithCode("inactive")
	}
	return u, nil
}

// Issue signs a fresh token pair for u.
func (s *AuthService) Issue(u *domain.User) (Session, error) {
	pair, err := s.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return Session{}, apperr.Database("sign token", err)
	}
	return Session{Pair: pair, User: u}, nil
}

// Login checks credentials and issues API tokens.
func (s *AuthService) Login(email, password string) (Session, error) {
	u, err := s.checkCredentials(email, password)
	if err != nil {
		return Session{}, err
	}
	return s.Issue(u)
}

// Refresh trades a refresh token for a new pair and revokes the old one.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
	claims, err := s.Tokens.Parse(raw, token.Refresh)
	if err != nil {
		return Session{}, apperr.Unauthorized("Invalid or expired refresh token")
	}
	u, err := s.activeUser(ctx, claims)
	if err != nil {
		return Session{}, err
	}
	if err := s.Revoked.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
		return Session{}, apperr.Database("revoke token", err)
	}
	return s.Issue(u)
}

// Authenticate resolves a bearer access token to its user.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*domain.User, *token.Claims, error) {
	claims, err := s.Tokens.Parse(raw, token.Access)
	if err != nil {
		return nil, nil, apperr.Unauthorized("Invalid or expired token")
	}
	u, err := s.activeUser(ctx, claims)
	if err != nil {
		return nil, nil, err
	}
	return u, claims, nil
}

func (s *AuthService) activeUser(ctx context.Context, claims *token.Claims) (*domain.User, error) {
	revoked, err := s.Revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Database("check revocation", err)
	}
	if revoked {
		return nil, apperr.Unauthorized("Token has been revoked")
	}
	u, err := s.Users.ByID(claims.Subject)
	if err != nil {
		if repos.IsNotFound(err) {
			return nil, apperr.Unauthorized("User no longer exists")
		}
		return nil, apperr.Database("load user", err)
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("Account is deactivated")
	}
	return u, nil
}

// Logout revokes the presented access token until it would expire.
func (s *AuthService) Logout(ctx context.Context, claims *token.Claims) error {
	if claims == nil {
		return nil
	}
	if err := s.Revoked.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
		return apperr.Database("revoke token", err)
	}
	return nil
}

// ResetPayload travels with the password.reset notification.
type ResetPayload struct {
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	ResetURL  string `json:"reset_url"`
	ExpiresAt string `json:"expires_at"`
}

// RequestPasswordReset stores a hashed single-use token and queues the mail.
// It reports success for unknown and inactive emails too.
func (s *AuthService) RequestPasswordReset(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.Users.ByEmail(email)
	if err != nil {
		if repos.IsNotFound(err) {
			return nil
		}
		return apperr.Database("load user", err)
	}
	if !u.IsActive {
		return nil
	}
	raw, err := newResetToken()
	if err != nil {
		return apperr.Database("generate reset token", err)
	}
	expires := s.now().Add(s.ResetTTL)
	if err := s.Resets.Purge(u.ID); err != nil {
		applog.BgError("auth.reset.purge.fail", err, map[string]any{"user_id": u.ID})
	}
	if err := s.Resets.Create(hashToken(raw), u.ID, expires); err != nil {
		return apperr.Database("store reset token", err)
	}
	link := s.PublicURL + "/reset-password?token=" + raw
	s.Notifier.Notify(notify.Message{
		Kind:          notify.KindPasswordReset,
		To:            u.Email,
		Subject:       "Reset your password",
		Body:          fmt.Sprintf("Hi %s,\n\nUse this link to choose a new password:\n%s\n\nThe link expires at %s UTC.\n", u.FirstName, link, expires.UTC().Format("2006-01-02 15:04")),
		CorrelationID: u.ID,
		Payload:       ResetPayload{UserID: u.ID, Token: raw, ResetURL: link, ExpiresAt: expires.UTC().Format(time.RFC3339)},
	})
	return nil
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(raw, newPassword string) error {
	if !validate.Password(newPassword) {
		return apperr.Validation("new_password", "Password must be between 8 and 72 characters")
	}
	userID, err := s.Resets.Consume(hashToken(strings.TrimSpace(raw)), s.now())
	if err != nil {
		if repos.IsNotFound(err) {
			return apperr.Unauthorized("Invalid or expired reset token")
		}
		return apperr.Database("consume reset token", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.BcryptCost)
	if err != nil {
		return apperr.Database("hash password", err)
	}
	return dbErr("set password", s.Users.SetPassword(userID, string(hash)))
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ---- web sessions ----

// LoginSession binds the browser session sid to the user on success.
func (s *AuthService) LoginSession(sid, email, password string) (*domain.User, error) {
	u, err := s.checkCredentials(email, password)
	if err != nil {
		return nil, err
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, apperr.Database("bind session", err)
	}
	return u, nil
}

func (s *AuthService) LogoutSession(sid string) error {
	return s.Users.UnbindSession(sid)
}

// CurrentUser returns the user bound to sid. Deactivated users are treated
// as logged out.
func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	u, err := s.Users.SessionUser(sid)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, errors.New("account is deactivated")
	}
	return u, nil
}
