package poems

import (
	"time"

	"github.com/versebook/versebook/internal/models"
)

// Poem visibility values. Anything else is rejected before it reaches storage.
const (
	StatusPublic  = "public"
	StatusPrivate = "private"
)

// Poem is the persistent poem record. User holds the owner's subject
// identifier; it is stamped from the authenticated caller at creation and
// never written again.
type Poem struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Title     string    `json:"title" bson:"title"`
	Body      string    `json:"body" bson:"body"`
	Status    string    `json:"status" bson:"status"`
	User      string    `json:"user" bson:"user"`
	CoverKey  string    `json:"coverKey,omitempty" bson:"coverKey,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Input is the allow-listed set of client-settable fields. Owner, identifier
// and timestamps deliberately have no place here, so a crafted form body can
// never reach them.
type Input struct {
	Title  string `form:"title" json:"title" binding:"required"`
	Body   string `form:"body" json:"body" binding:"required"`
	Status string `form:"status" json:"status" binding:"omitempty,oneof=public private"`
}

// PoemWithOwner is a poem joined with its owner's user document, used by the
// list and detail views.
type PoemWithOwner struct {
	Poem  `bson:",inline"`
	Owner *models.User `json:"owner,omitempty" bson:"owner,omitempty"`
}
