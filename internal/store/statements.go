package store

import "fmt"

// Statement names a SQL statement in a Registry.
type Statement string

// Working relations of the matcher.
const (
	MatcherVotesDrop     Statement = "matcher.votes.drop"
	MatcherVotesCreate   Statement = "matcher.votes.create"
	MatcherVotesCount    Statement = "matcher.votes.count"
	MatcherCovotesDrop   Statement = "matcher.covotes.drop"
	MatcherCovotesCreate Statement = "matcher.covotes.create"
	MatcherCovotesCount  Statement = "matcher.covotes.count"
	MatcherCovotesAll    Statement = "matcher.covotes.read_all"
	MatcherCovotesNew    Statement = "matcher.covotes.read_new"

	FilterGoal    Statement = "matcher.filter.goal"
	FilterGender  Statement = "matcher.filter.gender"
	FilterAge     Statement = "matcher.filter.age"
	FilterCountry Statement = "matcher.filter.country"
	FilterCity    Statement = "matcher.filter.city"
	FilterPhoto   Statement = "matcher.filter.photo"

	ShownMatchCreate Statement = "matcher.shown.create"
)

// Posts and votes.
const (
	PublicPostCreate         Statement = "post.public.create"
	PublicPostRead           Statement = "post.public.read"
	PublicPostUpdateCounters Statement = "post.public.update_counters"
	PublicPostUpdateStatus   Statement = "post.public.update_status"
	PersonalPostCreate       Statement = "post.personal.create"
	PersonalPostRead         Statement = "post.personal.read"

	PublicVoteRead   Statement = "vote.public.read"
	PublicVoteSave   Statement = "vote.public.save"
	PersonalVoteRead Statement = "vote.personal.read"
	PersonalVoteSave Statement = "vote.personal.save"
)

// Match statistics snapshots.
const (
	StatsV1Drop     Statement = "stats.v1.drop"
	StatsV1Create   Statement = "stats.v1.create"
	StatsV1ReadMine Statement = "stats.v1.read_mine"
	StatsV1ReadWith Statement = "stats.v1.read_with"

	StatsV2Drop       Statement = "stats.v2.drop"
	StatsV2Create     Statement = "stats.v2.create"
	StatsV2ReadSide   Statement = "stats.v2.read_side"
	StatsV2ReadCommon Statement = "stats.v2.read_common"
)

// Collections.
const (
	CollectionCreate       Statement = "collection.create"
	CollectionReadIDByName Statement = "collection.read_id_by_name"
	CollectionLinkPost     Statement = "collection.link_post"
	CollectionReadByAuthor Statement = "collection.read_by_author"
	CollectionReadPage     Statement = "collection.read_page"
	CollectionReadByIDs    Statement = "collection.read_by_ids"
	CollectionReadDefaults Statement = "collection.read_defaults"
	CollectionReadPosts    Statement = "collection.read_posts"
)

// Users.
const (
	UserCreate Statement = "user.create"
)

// Registry resolves statement text for a database/sql driver name.
type Registry interface {
	Lookup(stmt Statement, driver string) (string, bool)
}

// MapRegistry is a Registry backed by a base map plus per-driver overrides.
type MapRegistry struct {
	Base      map[Statement]string
	Overrides map[string]map[Statement]string
}

func (r *MapRegistry) Lookup(stmt Statement, driver string) (string, bool) {
	if byDriver, ok := r.Overrides[driver]; ok {
		if q, ok := byDriver[stmt]; ok {
			return q, true
		}
	}
	q, ok := r.Base[stmt]
	return q, ok
}

const sumVotes = `
	COALESCE(SUM(CASE WHEN %[1]s.value = 1 THEN 1 ELSE 0 END), 0) AS positive,
	COALESCE(SUM(CASE WHEN %[1]s.value = -1 THEN 1 ELSE 0 END), 0) AS negative,
	COALESCE(SUM(CASE WHEN %[1]s.value = 0 THEN 1 ELSE 0 END), 0) AS zero`

const covoteColumns = `c.id, c.user_id, c.count_common_interests`

// Covotes pop from the tail, so the best overlap is listed last.
const covoteOrder = `ORDER BY c.count_common_interests ASC, c.id DESC`

// DefaultRegistry returns the statements used by the core. Base statements
// are written for SQLite; MySQL overrides the upserts and the inserts that
// must not fail on duplicates.
func DefaultRegistry() *MapRegistry {
	base := map[Statement]string{
		MatcherVotesDrop: `DELETE FROM matcher_votes WHERE owner_id = ?`,
		MatcherVotesCreate: `
			INSERT INTO matcher_votes (owner_id, post_id, value, created_at)
			SELECT v.user_id, v.post_id, v.value, CURRENT_TIMESTAMP
			FROM public_votes v
			WHERE v.user_id = ? AND v.value = 1
			  AND NOT EXISTS (SELECT 1 FROM matcher_votes m WHERE m.owner_id = ?)`,
		MatcherVotesCount: `SELECT COUNT(*) FROM matcher_votes WHERE owner_id = ?`,

		MatcherCovotesDrop: `DELETE FROM matcher_covotes WHERE owner_id = ?`,
		MatcherCovotesCreate: `
			INSERT INTO matcher_covotes (owner_id, user_id, count_common_interests, created_at)
			SELECT m.owner_id, v.user_id, COUNT(*), CURRENT_TIMESTAMP
			FROM matcher_votes m
			JOIN public_votes v ON v.post_id = m.post_id AND v.value = m.value
			WHERE m.owner_id = ? AND v.user_id <> m.owner_id
			  AND NOT EXISTS (SELECT 1 FROM matcher_covotes c WHERE c.owner_id = ?)
			GROUP BY m.owner_id, v.user_id`,
		MatcherCovotesCount: `SELECT COUNT(*) FROM matcher_covotes WHERE owner_id = ?`,
		MatcherCovotesAll: `SELECT ` + covoteColumns + ` FROM matcher_covotes c
			WHERE c.owner_id = ? ` + covoteOrder,
		MatcherCovotesNew: `SELECT ` + covoteColumns + ` FROM matcher_covotes c
			WHERE c.owner_id = ?
			  AND NOT EXISTS (
				SELECT 1 FROM shown_matches s
				WHERE s.owner_id = c.owner_id AND s.user_id = c.user_id
			  ) ` + covoteOrder,

		FilterGoal: `
			DELETE FROM matcher_covotes
			WHERE owner_id = ? AND user_id IN (SELECT id FROM users WHERE goal NOT IN (?, ?))`,
		FilterGender: `
			DELETE FROM matcher_covotes
			WHERE owner_id = ? AND user_id IN (SELECT id FROM users WHERE gender <> ?)`,
		FilterAge: `
			DELETE FROM matcher_covotes
			WHERE owner_id = ? AND user_id IN (SELECT id FROM users WHERE age NOT BETWEEN ? AND ?)`,
		FilterCountry: `
			DELETE FROM matcher_covotes
			WHERE owner_id = ? AND user_id IN (
				SELECT u.id FROM users u JOIN users me ON me.id = ?
				WHERE u.country <> me.country
			)`,
		FilterCity: `
			DELETE FROM matcher_covotes
			WHERE owner_id = ? AND user_id IN (
				SELECT u.id FROM users u JOIN users me ON me.id = ?
				WHERE u.city <> me.city
			)`,
		FilterPhoto: `
			DELETE FROM matcher_covotes
			WHERE owner_id = ? AND user_id NOT IN (SELECT user_id FROM user_photos)`,

		PublicPostCreate: `
			INSERT INTO public_posts (author_id, message_id, status, likes_count, dislikes_count, created_at)
			VALUES (?, ?, 0, 0, 0, CURRENT_TIMESTAMP)`,
		PublicPostRead: `
			SELECT id, author_id, message_id, status, likes_count, dislikes_count
			FROM public_posts WHERE id = ?`,
		// relative, floored at zero; args: likes delta x2, dislikes delta x2, id
		PublicPostUpdateCounters: `
			UPDATE public_posts SET
				likes_count = CASE WHEN likes_count + ? < 0 THEN 0 ELSE likes_count + ? END,
				dislikes_count = CASE WHEN dislikes_count + ? < 0 THEN 0 ELSE dislikes_count + ? END
			WHERE id = ?`,
		PublicPostUpdateStatus: `UPDATE public_posts SET status = ? WHERE id = ?`,
		PersonalPostCreate: `
			INSERT INTO personal_posts (author_id, message_id, created_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)`,
		PersonalPostRead: `SELECT id, author_id, message_id FROM personal_posts WHERE id = ?`,

		PublicVoteRead: `
			SELECT user_id, post_id, message_id, value
			FROM public_votes WHERE user_id = ? AND post_id = ?`,
		PublicVoteSave: `
			INSERT INTO public_votes (user_id, post_id, message_id, value, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id, post_id) DO UPDATE SET
				message_id = excluded.message_id,
				value = excluded.value,
				updated_at = excluded.updated_at`,
		PersonalVoteRead: `
			SELECT user_id, post_id, message_id, value
			FROM personal_votes WHERE user_id = ? AND post_id = ?`,
		PersonalVoteSave: `
			INSERT INTO personal_votes (user_id, post_id, message_id, value, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id, post_id) DO UPDATE SET
				message_id = excluded.message_id,
				value = excluded.value,
				updated_at = excluded.updated_at`,

		StatsV1Drop: `DELETE FROM stats_snapshots WHERE owner_id = ?`,
		StatsV1Create: `
			INSERT INTO stats_snapshots (owner_id, post_id, value)
			SELECT user_id, post_id, value FROM public_votes WHERE user_id = ?`,
		StatsV1ReadMine: `SELECT ` + sprintfSum("s") + ` FROM stats_snapshots s WHERE s.owner_id = ?`,
		StatsV1ReadWith: `SELECT ` + sprintfSum("s") + `
			FROM stats_snapshots s
			JOIN public_votes v ON v.post_id = s.post_id AND v.value = s.value
			WHERE s.owner_id = ? AND v.user_id = ?`,

		StatsV2Drop: `DELETE FROM stats_pair_snapshots WHERE owner_id = ? AND with_user_id = ?`,
		StatsV2Create: `
			INSERT INTO stats_pair_snapshots (owner_id, with_user_id, user_id, post_id, value)
			SELECT ?, ?, user_id, post_id, value FROM public_votes WHERE user_id IN (?, ?)`,
		StatsV2ReadSide: `SELECT ` + sprintfSum("p") + `
			FROM stats_pair_snapshots p
			WHERE p.owner_id = ? AND p.with_user_id = ? AND p.user_id = ?`,
		StatsV2ReadCommon: `SELECT ` + sprintfSum("a") + `
			FROM stats_pair_snapshots a
			JOIN stats_pair_snapshots b
			  ON b.owner_id = a.owner_id AND b.with_user_id = a.with_user_id
			 AND b.post_id = a.post_id AND b.value = a.value
			WHERE a.owner_id = ? AND a.with_user_id = ?
			  AND a.user_id = a.owner_id AND b.user_id = b.with_user_id`,

		CollectionCreate: `
			INSERT OR IGNORE INTO collections (author_id, name, created_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)`,
		CollectionReadIDByName: `SELECT id FROM collections WHERE author_id = ? AND name = ?`,
		CollectionLinkPost: `
			INSERT OR IGNORE INTO collection_posts (collection_id, post_id) VALUES (?, ?)`,
		CollectionReadByAuthor: `SELECT id, author_id, name FROM collections WHERE author_id = ? ORDER BY id`,
		CollectionReadPage: `
			SELECT id, author_id, name FROM collections
			WHERE author_id = ? AND id > ? ORDER BY id LIMIT ?`,
		CollectionReadByIDs: `SELECT id, author_id, name FROM collections WHERE id IN (?) ORDER BY id`,
		CollectionReadDefaults: `
			SELECT id, author_id, name FROM collections
			WHERE SUBSTR(name, 1, ?) = ? ORDER BY id`,
		CollectionReadPosts: `
			SELECT p.id, p.author_id, p.message_id, p.status, p.likes_count, p.dislikes_count
			FROM public_posts p
			JOIN collection_posts cp ON cp.post_id = p.id
			WHERE cp.collection_id = ? ORDER BY p.id`,

		ShownMatchCreate: `
			INSERT OR IGNORE INTO shown_matches (owner_id, user_id, created_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)`,

		UserCreate: `
			INSERT OR IGNORE INTO users (id, goal, gender, age, country, city, comment, created_at, updated_at)
			VALUES (?, 2, 0, 0, '', '', '', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
	}

	mysql := map[Statement]string{
		ShownMatchCreate: `
			INSERT IGNORE INTO shown_matches (owner_id, user_id, created_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)`,
		PublicVoteSave: `
			INSERT INTO public_votes (user_id, post_id, message_id, value, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON DUPLICATE KEY UPDATE
				message_id = VALUES(message_id),
				value = VALUES(value),
				updated_at = VALUES(updated_at)`,
		PersonalVoteSave: `
			INSERT INTO personal_votes (user_id, post_id, message_id, value, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON DUPLICATE KEY UPDATE
				message_id = VALUES(message_id),
				value = VALUES(value),
				updated_at = VALUES(updated_at)`,
		CollectionCreate: `
			INSERT IGNORE INTO collections (author_id, name, created_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)`,
		CollectionLinkPost: `
			INSERT IGNORE INTO collection_posts (collection_id, post_id) VALUES (?, ?)`,
		UserCreate: `
			INSERT IGNORE INTO users (id, goal, gender, age, country, city, comment, created_at, updated_at)
			VALUES (?, 2, 0, 0, '', '', '', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
	}

	return &MapRegistry{
		Base: base,
		Overrides: map[string]map[Statement]string{
			"mysql": mysql,
		},
	}
}

func sprintfSum(alias string) string {
	return fmt.Sprintf(sumVotes, alias)
}
