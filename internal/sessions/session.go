package sessions

import "time"

// Session is a refresh session: an opaque refresh token bound to a user's
// subject with an absolute expiry. Stored in Redis when available, MongoDB
// otherwise.
type Session struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	RefreshToken string    `bson:"refreshToken" json:"refreshToken"`
	Sub          string    `bson:"sub" json:"sub"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

func (s *Session) Expired() bool {
	return time.Now().UTC().After(s.ExpiresAt)
}
