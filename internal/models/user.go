package models

import "time"

// User represents an application user (mapped from OIDC claims). Sub is the
// provider subject and is the identifier poems reference as their owner.
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	Sub       string    `bson:"sub" json:"sub"`
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	Image     string    `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
