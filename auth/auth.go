// Package auth registers and signs in accounts, issues JWTs and reports
// sign-in state changes to subscribers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"wanderlist/db"
	"wanderlist/middleware"
	"wanderlist/models"
	"wanderlist/schema"
	"wanderlist/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrUnknownProvider    = errors.New("unknown sign-in provider")
	ErrInvalidToken       = errors.New("invalid token")
)

const minPasswordLen = 6

// State describes a sign-in transition for one user.
type State struct {
	UserID   string
	SignedIn bool
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

type Config struct {
	Secret   []byte
	TokenTTL time.Duration
}

type Service struct {
	store     store.Store
	secret    []byte
	ttl       time.Duration
	providers map[string]Provider
	now       func() time.Time

	mu        sync.Mutex
	listeners map[int]func(State)
	nextID    int
	revoked   map[string]time.Time // jti -> token expiry
}

func NewService(s store.Store, cfg Config, providers ...Provider) *Service {
	svc := &Service{
		store:     s,
		secret:    cfg.Secret,
		ttl:       cfg.TokenTTL,
		providers: make(map[string]Provider),
		now:       time.Now,
		listeners: make(map[int]func(State)),
		revoked:   make(map[string]time.Time),
	}
	if svc.ttl <= 0 {
		svc.ttl = 12 * time.Hour
	}
	for _, p := range providers {
		svc.providers[p.Name()] = p
	}
	return svc
}

// OnAuthStateChange registers fn for every sign-in and sign-out and
// returns a function that removes it.
func (s *Service) OnAuthStateChange(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) notify(st State) {
	s.mu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func (s *Service) Register(ctx context.Context, email, password, displayName string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if len(password) < minPasswordLen {
		return Session{}, ErrWeakPassword
	}
	if _, err := s.findOne(ctx, store.Where("email", store.Eq, email)); err == nil {
		return Session{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
		Provider:     "password",
		CreatedAt:    s.now().UTC(),
	}
	if err := s.save(ctx, user); err != nil {
		return Session{}, err
	}
	log.Info().Str("userId", user.UserID).Msg("account registered")
	return s.signIn(user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.findOne(ctx, store.Where("email", store.Eq, email))
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if user.PasswordHash == "" {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.signIn(user)
}

// SignInWithProvider verifies credential with the named provider, creating
// the account on first use.
func (s *Service) SignInWithProvider(ctx context.Context, name, credential string) (Session, error) {
	p, ok := s.providers[name]
	if !ok {
		return Session{}, ErrUnknownProvider
	}
	ident, err := p.Verify(ctx, credential)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	user, err := s.findOne(ctx,
		store.Where("provider", store.Eq, name),
		store.Where("providerSubject", store.Eq, ident.Subject))
	switch {
	case errors.Is(err, store.ErrNotFound):
		user = models.User{
			UserID:          uuid.NewString(),
			Email:           strings.ToLower(ident.Email),
			DisplayName:     ident.DisplayName,
			EmailVerified:   ident.EmailVerified,
			Provider:        name,
			ProviderSubject: ident.Subject,
			CreatedAt:       s.now().UTC(),
		}
		if err := s.save(ctx, user); err != nil {
			return Session{}, err
		}
		log.Info().Str("userId", user.UserID).Str("provider", name).Msg("account created from provider")
	case err != nil:
		return Session{}, err
	}
	return s.signIn(user)
}

// SignOut revokes token and reports the user as signed out.
func (s *Service) SignOut(token string) error {
	claims, err := s.Verify(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	exp := s.now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	s.revoked[claims.ID] = exp
	s.mu.Unlock()

	s.notify(State{UserID: claims.UserID, SignedIn: false})
	return nil
}

// Verify parses token and rejects revoked or expired tokens.
func (s *Service) Verify(token string) (*middleware.Claims, error) {
	claims := &middleware.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for jti, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, jti)
		}
	}
	if _, gone := s.revoked[claims.ID]; gone {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) signIn(user models.User) (Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := &middleware.Claims{
		UserID: user.UserID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	s.notify(State{UserID: user.UserID, SignedIn: true})
	return Session{Token: token, ExpiresAt: exp, User: user}, nil
}

func (s *Service) save(ctx context.Context, user models.User) error {
	doc, err := schema.Encode(user)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, db.Users, user.UserID, doc, store.SetOptions{}); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Service) findOne(ctx context.Context, filters ...store.Filter) (models.User, error) {
	page, err := s.store.Query(ctx, store.Query{Collection: db.Users, Filters: filters, Limit: 1})
	if err != nil {
		return models.User{}, err
	}
	if len(page.Documents) == 0 {
		return models.User{}, store.ErrNotFound
	}
	return schema.Decode[models.User](schema.User, page.Documents[0])
}
