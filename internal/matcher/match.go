package matcher

import "math"

// Covote is another user sharing positive votes with the matcher owner.
type Covote struct {
	ID                   uint64 `db:"id"`
	UserID               uint64 `db:"user_id"`
	CountCommonInterests int    `db:"count_common_interests"`
}

// RawMatches holds the filtered covote partitions as read from the store.
type RawMatches struct {
	All      []*Covote
	New      []*Covote
	Current  []*Covote
	CountAll int
	CountNew int
}

// Set stores both partitions. Entries of all that also appear in fresh are
// replaced by the fresh record so each id has a single canonical covote.
func (r *RawMatches) Set(all, fresh []*Covote) {
	byID := make(map[uint64]*Covote, len(fresh))
	for _, c := range fresh {
		byID[c.ID] = c
	}
	for i, c := range all {
		if n, ok := byID[c.ID]; ok {
			all[i] = n
		}
	}

	r.All, r.New = all, fresh
	r.CountAll, r.CountNew = len(all), len(fresh)
}

// Stats is the overlap of a match with its owner.
type Stats struct {
	CommonPostsCount int
	CommonPostsPerc  int
}

// Match is a covote resolved into a presentable pairing.
type Match struct {
	ID      uint64
	OwnerID uint64
	UserID  uint64
	Stats   Stats
}

// Matches are the converted partitions plus the raw rows they came from.
type Matches struct {
	All     []*Match
	New     []*Match
	Current []*Match
	Raw     RawMatches
}

// CommonInterestsPerc is count as a rounded percentage of votes. Either
// operand being zero yields 0.
func CommonInterestsPerc(count, votes int) int {
	if count <= 0 || votes <= 0 {
		return 0
	}
	return int(math.RoundToEven(float64(count) / float64(votes) * 100))
}
