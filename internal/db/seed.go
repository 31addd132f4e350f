package db

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/david-shiko/rubik-sub000/internal/logger"
)

const (
	seedUsers      = 20
	seedPosts      = 30
	seedPostAuthor = 1000
)

var (
	seedCountries = []string{"RU", "DE", "FR"}
	seedCities    = map[string][]string{
		"RU": {"Moscow", "Kazan"},
		"DE": {"Berlin", "Munich"},
		"FR": {"Paris", "Lyon"},
	}
	seedCollections = []string{"cats", "travel", "music"}
)

// seedTables lists the tables SeedTestData clears, children first.
var seedTables = []string{
	"stats_pair_snapshots", "stats_snapshots",
	"matcher_covotes", "matcher_votes", "shown_matches",
	"collection_posts", "collections",
	"personal_votes", "public_votes",
	"personal_posts", "public_posts",
	"user_photos", "users",
}

// SeedTestData resets the database and populates it with a demo community.
//
// Behavior:
//  1. Clears every table.
//  2. Creates 20 users with random goal, gender, age and location; every
//     other user gets a photo.
//  3. Creates 30 released public posts and ~60% of users vote on each one
//     (~75% likes). Post counters match the votes.
//  4. Creates the default collections, named with defaultsPrefix.
func SeedTestData(db *gorm.DB, defaultsPrefix string) error {
	return seed(db, rand.New(rand.NewSource(time.Now().UnixNano())), defaultsPrefix)
}

func seed(db *gorm.DB, r *rand.Rand, defaultsPrefix string) error {
	log := logger.Component("seed")

	// --- Fresh start ---
	for _, table := range seedTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range []string{"public_posts", "personal_posts", "collections", "user_photos"} {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence")
	}
	log.Info("cleared existing data")

	// --- Seed Users ---
	users := make([]User, 0, seedUsers)
	var photos []UserPhoto
	for i := 1; i <= seedUsers; i++ {
		country := seedCountries[r.Intn(len(seedCountries))]
		cities := seedCities[country]
		users = append(users, User{
			ID:      uint64(i),
			Goal:    int8(r.Intn(3)),
			Gender:  int8(r.Intn(2)),
			Age:     18 + r.Intn(40),
			Country: country,
			City:    cities[r.Intn(len(cities))],
		})
		if i%2 == 0 {
			photos = append(photos, UserPhoto{UserID: uint64(i), FileID: fmt.Sprintf("demo-photo-%d", i)})
		}
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	if err := db.Create(&photos).Error; err != nil {
		return fmt.Errorf("failed to seed photos: %w", err)
	}
	log.Info("seeded users", "count", len(users), "photos", len(photos))

	// --- Seed posts and votes ---
	var votes []PublicVote
	posts := make([]PublicPost, 0, seedPosts)
	for p := 1; p <= seedPosts; p++ {
		post := PublicPost{ID: uint64(p), AuthorID: seedPostAuthor, MessageID: int64(p), Status: 2}
		for u := 1; u <= seedUsers; u++ {
			if r.Intn(100) >= 60 {
				continue
			}
			value := int8(1)
			if r.Intn(100) >= 75 {
				value = -1
			}
			if value > 0 {
				post.LikesCount++
			} else {
				post.DislikesCount++
			}
			votes = append(votes, PublicVote{UserID: uint64(u), PostID: post.ID, MessageID: int64(p), Value: value})
		}
		posts = append(posts, post)
	}
	if err := db.Create(&posts).Error; err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).CreateInBatches(&votes, 100).Error; err != nil {
		return fmt.Errorf("failed to seed votes: %w", err)
	}
	log.Info("seeded posts", "posts", len(posts), "votes", len(votes))

	// --- Seed default collections ---
	for i, name := range seedCollections {
		c := Collection{AuthorID: seedPostAuthor, Name: defaultsPrefix + name}
		if err := db.Create(&c).Error; err != nil {
			return fmt.Errorf("failed to seed collection %s: %w", name, err)
		}
		links := make([]CollectionPost, 0, 5)
		for p := i*5 + 1; p <= i*5+5; p++ {
			links = append(links, CollectionPost{CollectionID: c.ID, PostID: uint64(p)})
		}
		if err := db.Create(&links).Error; err != nil {
			return fmt.Errorf("failed to link collection %s: %w", name, err)
		}
	}
	log.Info("seeded default collections", "count", len(seedCollections))

	return nil
}
