package models

import "time"

// Account is a registered user identity as stored in the Users
// collection. Follower/following edges are flat id lists kept with
// atomic array updates.
type Account struct {
	ID             string    `bson:"_id" json:"id"`
	Name           string    `bson:"name" json:"name"`
	Username       string    `bson:"username" json:"username"`
	ProfilePicture string    `bson:"profile_picture,omitempty" json:"profile_picture,omitempty"`
	Initials       string    `bson:"initials,omitempty" json:"initials,omitempty"`
	Bio            string    `bson:"bio,omitempty" json:"bio,omitempty"`
	Location       string    `bson:"location,omitempty" json:"location,omitempty"`
	Followers      []string  `bson:"followers" json:"followers"`
	Following      []string  `bson:"following" json:"following"`
	IsOnline       bool      `bson:"is_online" json:"is_online"`
	LastSeen       time.Time `bson:"last_seen,omitempty" json:"last_seen,omitempty"`
}

// Follows reports whether the account lists id in its following set.
func (a *Account) Follows(id string) bool {
	for _, f := range a.Following {
		if f == id {
			return true
		}
	}
	return false
}

// CanMessage reports whether a and b mutually follow each other. This
// is the authorization rule for direct messages; it is recomputed from
// account state on every check and never persisted.
func CanMessage(a, b *Account) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Follows(b.ID) && b.Follows(a.ID)
}
