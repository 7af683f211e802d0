package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Theme is the console color scheme preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// Session is the in-memory authentication/authorization state for one console
// session. Invariant: Authenticated implies Admin != nil.
type Session struct {
	Authenticated bool   `bson:"authenticated" json:"authenticated"`
	Admin         *Admin `bson:"admin,omitempty" json:"admin,omitempty"`
	SidebarShow   bool   `bson:"sidebar_show" json:"sidebar_show"`
	Theme         Theme  `bson:"theme" json:"theme"`
}

// DefaultSession returns the initial session state.
func DefaultSession() Session {
	return Session{
		Authenticated: false,
		Admin:         nil,
		SidebarShow:   true,
		Theme:         ThemeLight,
	}
}

// SessionChange is a partial update applied to a session. Nil fields are left
// untouched. Callers guarantee shape; no validation is performed here.
type SessionChange struct {
	Authenticated *bool
	Admin         *Admin
	SidebarShow   *bool
	Theme         *Theme
}

// Apply merges the change into the session. Used for login and for restoring
// from the durable credential record.
func (s *Session) Apply(change SessionChange) {
	if change.Authenticated != nil {
		s.Authenticated = *change.Authenticated
	}
	if change.Admin != nil {
		s.Admin = change.Admin
	}
	if change.SidebarShow != nil {
		s.SidebarShow = *change.SidebarShow
	}
	if change.Theme != nil {
		s.Theme = *change.Theme
	}
}

// Clear resets authentication state while preserving UI preferences.
func (s *Session) Clear() {
	s.Authenticated = false
	s.Admin = nil
}

// SessionRecord is a console session persisted in durable storage.
type SessionRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID    string             `bson:"session_id" json:"session_id"`
	State        Session            `bson:"state" json:"state"`
	IPAddress    string             `bson:"ip_address" json:"-"`
	UserAgent    string             `bson:"user_agent" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed time.Time          `bson:"last_accessed" json:"last_accessed"`
	ExpiresAt    time.Time          `bson:"expires_at" json:"expires_at"`
	IsActive     bool               `bson:"is_active" json:"-"`
}

// CredentialRecord is the durable credential mirror of a session: the upstream
// bearer token plus the serialized admin profile, so a restarted console (or a
// session whose in-memory state was reset) can restore authentication.
// Destroyed on logout and on any upstream authentication failure.
type CredentialRecord struct {
	SessionID      string    `bson:"session_id" json:"-"`
	Token          string    `bson:"token" json:"-"`
	AdminJSON      string    `bson:"admin_json" json:"-"`
	TokenExpiresAt time.Time `bson:"token_expires_at" json:"token_expires_at"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
