package service

import (
	"context"
	"sort"

	"servicemarket/internal/domain/entity"
	"servicemarket/pkg/logger"
)

// DefaultMaxCategoryDepth bounds tree walks. Admin-built trees are a few
// levels deep; anything past this is treated as corrupt.
const DefaultMaxCategoryDepth = 32

type CategoryTreeReader interface {
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	ListChildIDs(ctx context.Context, parentID string) ([]string, error)
}

type SubscriptionReader interface {
	GetCategoryIDs(ctx context.Context, userID string) ([]string, error)
}

// CategorySet is a set of category ids. A nil set means "no restriction".
type CategorySet map[string]struct{}

func NewCategorySet(ids ...string) CategorySet {
	s := make(CategorySet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s CategorySet) Contains(id string) bool {
	if s == nil {
		return true
	}
	_, ok := s[id]
	return ok
}

func (s CategorySet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// VisibilityResolver decides which categories a provider may browse.
type VisibilityResolver struct {
	categories    CategoryTreeReader
	subscriptions SubscriptionReader
	maxDepth      int
}

func NewVisibilityResolver(categories CategoryTreeReader, subscriptions SubscriptionReader) *VisibilityResolver {
	return &VisibilityResolver{
		categories:    categories,
		subscriptions: subscriptions,
		maxDepth:      DefaultMaxCategoryDepth,
	}
}

func (r *VisibilityResolver) WithMaxDepth(depth int) *VisibilityResolver {
	r.maxDepth = depth
	return r
}

// AllowedFor returns the closure of the provider's subscribed categories.
// A provider without subscriptions gets a nil set and sees every category.
func (r *VisibilityResolver) AllowedFor(ctx context.Context, userID string) (CategorySet, error) {
	subscribed, err := r.subscriptions.GetCategoryIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(subscribed) == 0 {
		return nil, nil
	}
	return r.Closure(ctx, subscribed)
}

// Closure returns roots plus all of their transitive descendants, found by
// one-level child lookups. Already visited ids are not expanded again.
func (r *VisibilityResolver) Closure(ctx context.Context, roots []string) (CategorySet, error) {
	type node struct {
		id    string
		depth int
	}

	visited := make(CategorySet, len(roots))
	queue := make([]node, 0, len(roots))
	for _, id := range roots {
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		queue = append(queue, node{id: id})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= r.maxDepth {
			logger.Warn("category tree deeper than %d below %s, not expanding further", r.maxDepth, current.id)
			continue
		}

		children, err := r.categories.ListChildIDs(ctx, current.id)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			queue = append(queue, node{id: child, depth: current.depth + 1})
		}
	}

	return visited, nil
}

// Ancestors returns the parent chain of categoryID, nearest first. The walk
// stops at a repeated id or at the depth bound.
func (r *VisibilityResolver) Ancestors(ctx context.Context, categoryID string) ([]string, error) {
	category, err := r.categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	var ancestors []string
	seen := NewCategorySet(categoryID)
	for parent := category.ParentID; parent != nil && len(ancestors) < r.maxDepth; {
		if seen.Contains(*parent) {
			logger.Warn("category cycle detected at %s", *parent)
			break
		}
		seen[*parent] = struct{}{}
		ancestors = append(ancestors, *parent)

		next, err := r.categories.GetByID(ctx, *parent)
		if err != nil {
			return nil, err
		}
		parent = next.ParentID
	}
	return ancestors, nil
}

// WouldCycle reports whether giving categoryID the parent newParentID would
// make categoryID its own ancestor.
func (r *VisibilityResolver) WouldCycle(ctx context.Context, categoryID, newParentID string) (bool, error) {
	if categoryID == newParentID {
		return true, nil
	}
	ancestors, err := r.Ancestors(ctx, newParentID)
	if err != nil {
		return false, err
	}
	for _, id := range ancestors {
		if id == categoryID {
			return true, nil
		}
	}
	return false, nil
}
