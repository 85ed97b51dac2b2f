package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicemarket/internal/domain/entity"
)

type treeStub struct {
	parents map[string]*string
	calls   int
}

func newTreeStub(edges map[string]string, roots ...string) *treeStub {
	t := &treeStub{parents: map[string]*string{}}
	for _, r := range roots {
		t.parents[r] = nil
	}
	for child, parent := range edges {
		p := parent
		t.parents[child] = &p
	}
	return t
}

func (t *treeStub) GetByID(_ context.Context, id string) (*entity.Category, error) {
	parent, ok := t.parents[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &entity.Category{ID: id, ParentID: parent}, nil
}

func (t *treeStub) ListChildIDs(_ context.Context, parentID string) ([]string, error) {
	t.calls++
	var ids []string
	for id, parent := range t.parents {
		if parent != nil && *parent == parentID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type subsStub map[string][]string

func (s subsStub) GetCategoryIDs(_ context.Context, userID string) ([]string, error) {
	return s[userID], nil
}

func TestVisibilityResolver_Closure(t *testing.T) {
	// A -> B -> D, A -> C, E unrelated
	tree := newTreeStub(map[string]string{"B": "A", "C": "A", "D": "B"}, "A", "E")
	resolver := NewVisibilityResolver(tree, subsStub{"p1": {"A"}})

	allowed, err := resolver.AllowedFor(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D"}, allowed.IDs())
	assert.True(t, allowed.Contains("D"))
	assert.False(t, allowed.Contains("E"))
}

func TestVisibilityResolver_NoSubscriptionsIsUnrestricted(t *testing.T) {
	tree := newTreeStub(nil, "A", "E")
	resolver := NewVisibilityResolver(tree, subsStub{})

	allowed, err := resolver.AllowedFor(context.Background(), "p1")
	require.NoError(t, err)

	assert.Nil(t, allowed)
	assert.True(t, allowed.Contains("E"))
	assert.Zero(t, tree.calls)
}

func TestVisibilityResolver_OverlappingSubscriptionsAreDeduplicated(t *testing.T) {
	tree := newTreeStub(map[string]string{"B": "A", "D": "B"}, "A")
	resolver := NewVisibilityResolver(tree, subsStub{"p1": {"B", "A", "B"}})

	allowed, err := resolver.AllowedFor(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "D"}, allowed.IDs())
}

func TestVisibilityResolver_CorruptCycleTerminates(t *testing.T) {
	tree := newTreeStub(map[string]string{"A": "C", "B": "A", "C": "B"})
	resolver := NewVisibilityResolver(tree, subsStub{})

	allowed, err := resolver.Closure(context.Background(), []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, allowed.IDs())
}

func TestVisibilityResolver_DepthBound(t *testing.T) {
	tree := newTreeStub(map[string]string{"L1": "L0", "L2": "L1", "L3": "L2"}, "L0")
	resolver := NewVisibilityResolver(tree, subsStub{}).WithMaxDepth(2)

	allowed, err := resolver.Closure(context.Background(), []string{"L0"})
	require.NoError(t, err)
	assert.Equal(t, []string{"L0", "L1", "L2"}, allowed.IDs())
}

func TestVisibilityResolver_WouldCycle(t *testing.T) {
	tree := newTreeStub(map[string]string{"B": "A", "D": "B"}, "A", "E")
	resolver := NewVisibilityResolver(tree, subsStub{})
	ctx := context.Background()

	cycle, err := resolver.WouldCycle(ctx, "A", "D")
	require.NoError(t, err)
	assert.True(t, cycle, "A under its own grandchild")

	cycle, err = resolver.WouldCycle(ctx, "A", "A")
	require.NoError(t, err)
	assert.True(t, cycle)

	cycle, err = resolver.WouldCycle(ctx, "D", "E")
	require.NoError(t, err)
	assert.False(t, cycle)
}

func TestVisibilityResolver_Ancestors(t *testing.T) {
	tree := newTreeStub(map[string]string{"B": "A", "D": "B"}, "A")
	resolver := NewVisibilityResolver(tree, subsStub{})

	ancestors, err := resolver.Ancestors(context.Background(), "D")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, ancestors)
}
