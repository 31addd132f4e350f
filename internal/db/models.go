package db

import (
	"time"
)

// User is a bot user. ID is the messenger-side user id, not auto-generated.
type User struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement:false"`
	Goal      int8      `gorm:"not null;index"`
	Gender    int8      `gorm:"not null;index"`
	Age       int       `gorm:"not null;index"`
	Country   string    `gorm:"size:64"`
	City      string    `gorm:"size:64"`
	Comment   string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// UserPhoto references a photo stored by the messenger.
type UserPhoto struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index"`
	FileID    string    `gorm:"size:255;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// PublicPost is shared content that every user can vote on.
// Likes/dislikes counters are only written by the vote state machine.
type PublicPost struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	AuthorID      uint64    `gorm:"not null;index"`
	MessageID     int64     `gorm:"not null"`
	Status        int8      `gorm:"not null;default:0"`
	LikesCount    int       `gorm:"not null;default:0"`
	DislikesCount int       `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// PersonalPost is content addressed to a single recipient.
type PersonalPost struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	AuthorID  uint64    `gorm:"not null;index"`
	MessageID int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// PublicVote is a user's vote on a public post.
//
// Composite PK: (UserID, PostID)
//   - One row per pair; the value is overwritten on every accepted transition.
//
// Indexes:
//   - idx_public_votes_post_value(post_id, value)
//     Optimizes covote joins ("who else voted this post the same way").
type PublicVote struct {
	UserID    uint64    `gorm:"primaryKey"`
	PostID    uint64    `gorm:"primaryKey;index:idx_public_votes_post_value,priority:1"`
	MessageID int64     `gorm:"not null;default:0"`
	Value     int8      `gorm:"not null;default:0;index:idx_public_votes_post_value,priority:2"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// PersonalVote is a user's vote on a personal post. No aggregates.
type PersonalVote struct {
	UserID    uint64    `gorm:"primaryKey"`
	PostID    uint64    `gorm:"primaryKey"`
	MessageID int64     `gorm:"not null;default:0"`
	Value     int8      `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// ShownMatch records that UserID has already been shown to OwnerID.
type ShownMatch struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID   uint64    `gorm:"not null;uniqueIndex:idx_shown_owner_user,priority:1"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_shown_owner_user,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Collection groups public posts under a name unique per author.
type Collection struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	AuthorID  uint64    `gorm:"not null;uniqueIndex:idx_collection_author_name,priority:1"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_collection_author_name,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// CollectionPost is the many-to-many link between collections and posts.
type CollectionPost struct {
	CollectionID uint64 `gorm:"primaryKey"`
	PostID       uint64 `gorm:"primaryKey;index"`
}

// MatcherVote is the "my votes" working relation of one matcher session.
// Rows are keyed by OwnerID so sessions of different users never overlap.
type MatcherVote struct {
	OwnerID   uint64    `gorm:"primaryKey"`
	PostID    uint64    `gorm:"primaryKey;index"`
	Value     int8      `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// MatcherCovote is the "covotes" working relation built from MatcherVote.
type MatcherCovote struct {
	ID                   uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID              uint64    `gorm:"not null;uniqueIndex:idx_covote_owner_user,priority:1"`
	UserID               uint64    `gorm:"not null;uniqueIndex:idx_covote_owner_user,priority:2"`
	CountCommonInterests int       `gorm:"not null"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
}

// StatsSnapshot is the per-user vote snapshot used by the v1 statistics strategy.
type StatsSnapshot struct {
	OwnerID uint64 `gorm:"primaryKey"`
	PostID  uint64 `gorm:"primaryKey"`
	Value   int8   `gorm:"not null"`
}

// StatsPairSnapshot is the joint two-user snapshot used by the v2 strategy.
type StatsPairSnapshot struct {
	OwnerID    uint64 `gorm:"primaryKey"`
	WithUserID uint64 `gorm:"primaryKey"`
	UserID     uint64 `gorm:"primaryKey"`
	PostID     uint64 `gorm:"primaryKey"`
	Value      int8   `gorm:"not null"`
}

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{
		&User{}, &UserPhoto{},
		&PublicPost{}, &PersonalPost{},
		&PublicVote{}, &PersonalVote{},
		&ShownMatch{},
		&Collection{}, &CollectionPost{},
		&MatcherVote{}, &MatcherCovote{},
		&StatsSnapshot{}, &StatsPairSnapshot{},
	}
}
