package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/internal/models"
)

func puint(v uint) *uint { return &v }

func TestBuildTreeEmpty(t *testing.T) {
	assert.Empty(t, BuildTree(nil))
	assert.Empty(t, BuildTree([]models.Organization{}))
}

func TestBuildTreeForestWithOrphan(t *testing.T) {
	flat := []models.Organization{
		{ID: 1, Slug: "a"},
		{ID: 2, Slug: "b", ParentOrganizationID: puint(1)},
		{ID: 3, Slug: "c", ParentOrganizationID: puint(99)}, // родитель удалён
	}
	roots := BuildTree(flat)
	require.Len(t, roots, 2)

	a, c := roots[0], roots[1]
	assert.Equal(t, uint(1), a.ID)
	assert.False(t, a.IsOrphan)
	require.Len(t, a.Children, 1)
	assert.Equal(t, uint(2), a.Children[0].ID)

	// orphan поднимается в корни и остаётся видимым
	assert.Equal(t, uint(3), c.ID)
	assert.True(t, c.IsOrphan)
	assert.Empty(t, c.Children)
}

func TestBuildTreeDeepChain(t *testing.T) {
	flat := []models.Organization{
		{ID: 1},
		{ID: 2, ParentOrganizationID: puint(1)},
		{ID: 3, ParentOrganizationID: puint(2)},
	}
	roots := BuildTree(flat)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, uint(3), roots[0].Children[0].Children[0].ID)
}
