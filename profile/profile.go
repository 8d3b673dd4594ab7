// Package profile manages display names, profile icons and preference
// keywords stored per user in userPreferences.
package profile

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wanderlist/db"
	"wanderlist/events"
	"wanderlist/models"
	"wanderlist/schema"
	"wanderlist/store"
)

const (
	IconSize           = 256
	MaxDisplayNameLen  = 50
	MaxPreferenceCount = 30
	iconSubdir         = "icons"
)

var (
	ErrInvalidDisplayName = errors.New("display name must be 1-50 characters")
	ErrTooManyPreferences = errors.New("too many preferences")
	ErrInvalidImage       = errors.New("invalid image")
)

type Options struct {
	Store     store.Store
	Bus       *events.Bus
	UploadDir string
	PublicURL string
	Now       func() time.Time
}

type Service struct {
	store     store.Store
	bus       *events.Bus
	uploadDir string
	publicURL string
	now       func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		store:     opts.Store,
		bus:       opts.Bus,
		uploadDir: opts.UploadDir,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		now:       opts.Now,
	}
	if s.uploadDir == "" {
		s.uploadDir = "static"
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Get returns the stored profile, or an empty one when the user has never
// saved anything.
func (s *Service) Get(ctx context.Context, userID string) (models.UserPreferences, error) {
	doc, err := s.store.Get(ctx, db.UserPreferences, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.UserPreferences{UserID: userID, Preferences: []string{}}, nil
	}
	if err != nil {
		return models.UserPreferences{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return schema.DecodeUserPreferences(doc)
}

// Preferences returns the user's interest keywords.
func (s *Service) Preferences(ctx context.Context, userID string) ([]string, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.Preferences, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID, displayName string) (models.UserPreferences, error) {
	name := strings.TrimSpace(displayName)
	if name == "" || utf8.RuneCountInString(name) > MaxDisplayNameLen {
		return models.UserPreferences{}, ErrInvalidDisplayName
	}
	return s.merge(ctx, userID, store.Document{"displayName": name})
}

// SetPreferences replaces the keyword list after normalizing it and
// announces the change so cached recommendations can be dropped.
func (s *Service) SetPreferences(ctx context.Context, userID string, prefs []string) (models.UserPreferences, error) {
	clean := models.NormalizeKeywords(prefs)
	if len(clean) > MaxPreferenceCount {
		return models.UserPreferences{}, ErrTooManyPreferences
	}
	p, err := s.merge(ctx, userID, store.Document{"preferences": clean})
	if err != nil {
		return p, err
	}
	s.bus.Publish(events.Event{Kind: events.PreferencesChanged, UserID: userID, Payload: clean})
	return p, nil
}

// SaveIcon decodes an uploaded image, crops it to a square icon and stores
// the file under the upload directory.
func (s *Service) SaveIcon(ctx context.Context, userID string, r io.Reader) (models.UserPreferences, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return models.UserPreferences{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	name, err := s.writeIcon(img)
	if err != nil {
		return models.UserPreferences{}, err
	}
	url := s.publicURL + "/" + filepath.ToSlash(filepath.Join(iconSubdir, name))
	return s.merge(ctx, userID, store.Document{"profileIcon": url})
}

func (s *Service) writeIcon(img image.Image) (string, error) {
	icon := imaging.Fill(img, IconSize, IconSize, imaging.Center, imaging.Lanczos)
	dir := filepath.Join(s.uploadDir, iconSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	name := uuid.NewString() + ".jpg"
	if err := imaging.Save(icon, filepath.Join(dir, name), imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("save icon: %w", err)
	}
	log.Debug().Str("file", name).Msg("profile icon saved")
	return name, nil
}

func (s *Service) merge(ctx context.Context, userID string, fields store.Document) (models.UserPreferences, error) {
	fields["userId"] = userID
	fields["updatedAt"] = s.now().UTC()
	if err := s.store.Set(ctx, db.UserPreferences, userID, fields, store.SetOptions{Merge: true}); err != nil {
		return models.UserPreferences{}, fmt.Errorf("update profile %s: %w", userID, err)
	}
	return s.Get(ctx, userID)
}
