package models

import "time"

type User struct {
	UserID          string    `json:"userId" bson:"userId"`
	Email           string    `json:"email" bson:"email"`
	PasswordHash    string    `json:"-" bson:"password_hash,omitempty"`
	DisplayName     string    `json:"displayName,omitempty" bson:"displayName,omitempty"`
	EmailVerified   bool      `json:"emailVerified" bson:"emailVerified"`
	Provider        string    `json:"provider,omitempty" bson:"provider,omitempty"`
	ProviderSubject string    `json:"-" bson:"providerSubject,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
}

// UserPreferences holds profile fields and interest keywords for a user.
type UserPreferences struct {
	UserID      string    `json:"userId" bson:"userId"`
	DisplayName string    `json:"displayName,omitempty" bson:"displayName,omitempty"`
	ProfileIcon string    `json:"profileIcon,omitempty" bson:"profileIcon,omitempty"`
	Preferences []string  `json:"preferences" bson:"preferences"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
