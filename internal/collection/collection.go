// Package collection groups public posts under names unique per author.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/david-shiko/rubik-sub000/internal/domain"
	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
	"github.com/david-shiko/rubik-sub000/internal/logger"
	"github.com/david-shiko/rubik-sub000/internal/store"
)

// MaxNameLength bounds collection names.
const MaxNameLength = 64

// Collection is a named set of public posts. Posts are loaded on demand.
type Collection struct {
	ID       uint64 `db:"id"`
	AuthorID uint64 `db:"author_id"`
	Name     string `db:"name"`

	Posts       []*domain.PublicPost `db:"-"`
	postsLoaded bool
}

// Engine creates and reads collections through the store.
type Engine struct {
	store store.Store
	log   *slog.Logger
}

func New(st store.Store, log *slog.Logger) *Engine {
	return &Engine{
		store: st,
		log:   logger.OrDiscard(log).With("component", "collection"),
	}
}

// ValidateName normalizes and checks a collection name.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := apperr.Check("name", name, fmt.Sprintf("required,max=%d", MaxNameLength)); err != nil {
		return "", err
	}
	return name, nil
}

// Create creates the collection or, when the author already has one with
// that name, reuses it. Every post id is then linked to it; links that
// already exist are kept.
func (e *Engine) Create(ctx context.Context, conn store.Conn, authorID uint64, name string, postIDs []uint64) (*Collection, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	newID, err := e.store.Create(ctx, conn, store.CollectionCreate, authorID, name)
	if err != nil {
		return nil, err
	}

	var id uint64
	if newID != nil {
		id = *newID
	} else {
		found, err := e.store.Read(ctx, conn, store.CollectionReadIDByName, &id, authorID, name)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("collection %q of %d neither created nor found", name, authorID)
		}
		e.log.DebugContext(ctx, "reusing collection", "collection_id", id, "name", name)
	}

	for _, postID := range postIDs {
		if _, err := e.store.Create(ctx, conn, store.CollectionLinkPost, id, postID); err != nil {
			return nil, err
		}
	}

	return &Collection{ID: id, AuthorID: authorID, Name: name}, nil
}

// GetUserCollections returns every collection of authorID.
func (e *Engine) GetUserCollections(ctx context.Context, conn store.Conn, authorID uint64) ([]*Collection, error) {
	var out []*Collection
	if _, err := e.store.Read(ctx, conn, store.CollectionReadByAuthor, &out, authorID); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUserCollections returns up to limit collections of authorID with ids
// greater than afterID.
func (e *Engine) ListUserCollections(ctx context.Context, conn store.Conn, authorID, afterID uint64, limit int) ([]*Collection, error) {
	var out []*Collection
	if _, err := e.store.Read(ctx, conn, store.CollectionReadPage, &out, authorID, afterID, limit); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByIDs returns the collections with the given ids.
func (e *Engine) GetByIDs(ctx context.Context, conn store.Conn, ids []uint64) ([]*Collection, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []*Collection
	if _, err := e.store.Read(ctx, conn, store.CollectionReadByIDs, &out, ids); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDefaults returns the seed collections named with prefix, with the
// prefix stripped from their names.
func (e *Engine) GetDefaults(ctx context.Context, conn store.Conn, prefix string) ([]*Collection, error) {
	if prefix == "" {
		return nil, apperr.Invalid("prefix", "must not be empty")
	}

	var out []*Collection
	if _, err := e.store.Read(ctx, conn, store.CollectionReadDefaults, &out, utf8.RuneCountInString(prefix), prefix); err != nil {
		return nil, err
	}
	for _, c := range out {
		c.Name = strings.TrimPrefix(c.Name, prefix)
	}
	return out, nil
}

// LoadPosts fills c.Posts once.
func (e *Engine) LoadPosts(ctx context.Context, conn store.Conn, c *Collection) error {
	if c.postsLoaded {
		return nil
	}
	var posts []*domain.PublicPost
	if _, err := e.store.Read(ctx, conn, store.CollectionReadPosts, &posts, c.ID); err != nil {
		return err
	}
	c.Posts = posts
	c.postsLoaded = true
	return nil
}
