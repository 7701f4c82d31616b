package wardrobe

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycwei/smartlook/internal/capture"
)

func testPhoto(n int) capture.Photo {
	return capture.Photo{
		Data:     []byte(fmt.Sprintf("image-%d", n)),
		MIMEType: "image/jpeg",
	}
}

func TestStore_AppendOrder(t *testing.T) {
	store := NewStore()

	var ids []string
	for i := 0; i < 5; i++ {
		entry := NewGarmentEntry(testPhoto(i), CategoryTop, fmt.Sprintf("item %d", i))
		store.Append(entry)
		ids = append(ids, entry.ID)
	}

	all := store.All()
	require.Len(t, all, 5)

	// Most recent first: reverse insertion order.
	for i, entry := range all {
		assert.Equal(t, ids[len(ids)-1-i], entry.ID)
	}
}

func TestStore_IDsUnique(t *testing.T) {
	store := NewStore()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		entry := NewGarmentEntry(testPhoto(i), CategoryOther, "x")
		store.Append(entry)
		assert.False(t, seen[entry.ID], "duplicate id %s", entry.ID)
		seen[entry.ID] = true
	}
}

func TestStore_Filter(t *testing.T) {
	store := NewStore()
	store.Append(NewGarmentEntry(testPhoto(1), CategoryTop, "shirt"))
	store.Append(NewGarmentEntry(testPhoto(2), CategoryShoes, "sneakers"))
	store.Append(NewGarmentEntry(testPhoto(3), CategoryTop, "tee"))

	tops := store.Filter(CategoryTop)
	require.Len(t, tops, 2)
	for _, e := range tops {
		assert.Equal(t, CategoryTop, e.Category)
	}

	shoes := store.Filter(CategoryShoes)
	require.Len(t, shoes, 1)
	assert.Equal(t, "sneakers", shoes[0].Description)

	assert.Empty(t, store.Filter(CategoryOuterwear))

	all := store.Filter(CategoryAll)
	assert.Len(t, all, 3)
}

func TestStore_FilterSnapshotIndependent(t *testing.T) {
	store := NewStore()
	store.Append(NewGarmentEntry(testPhoto(1), CategoryTop, "a"))

	snapshot := store.Filter(CategoryAll)
	store.Append(NewGarmentEntry(testPhoto(2), CategoryTop, "b"))

	assert.Len(t, snapshot, 1, "snapshot should not see later appends")
	assert.Len(t, store.All(), 2)
}

func TestStore_Get(t *testing.T) {
	store := NewStore()
	entry := NewGarmentEntry(testPhoto(1), CategoryBottom, "jeans")
	store.Append(entry)

	got, ok := store.Get(entry.ID)
	require.True(t, ok)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, entry.Image.Data, got.Image.Data)

	_, ok = store.Get("nope")
	assert.False(t, ok)
}

func TestCategory_IsValid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.IsValid(), "category %s", c)
	}
	assert.False(t, Category("帽子").IsValid())
	assert.False(t, CategoryAll.IsValid(), "the filter pseudo-category is not assignable")
}

func TestSelectionSet_ToggleIdempotentPair(t *testing.T) {
	sel := NewSelectionSet()

	assert.True(t, sel.Toggle("a"))
	assert.Equal(t, []string{"a"}, sel.IDs())

	assert.False(t, sel.Toggle("a"))
	assert.Empty(t, sel.IDs())
}

func TestSelectionSet_PreservesToggleOrder(t *testing.T) {
	sel := NewSelectionSet()
	sel.Toggle("b")
	sel.Toggle("a")
	sel.Toggle("c")
	assert.Equal(t, []string{"b", "a", "c"}, sel.IDs())

	// Removing from the middle keeps the remaining order.
	sel.Toggle("a")
	assert.Equal(t, []string{"b", "c"}, sel.IDs())
}

func TestSelectionSet_Clear(t *testing.T) {
	sel := NewSelectionSet()
	sel.Toggle("a")
	sel.Toggle("b")
	sel.Clear()
	assert.Empty(t, sel.IDs())
	assert.Zero(t, sel.Len())
}

func TestSelectionSet_Validate(t *testing.T) {
	store := NewStore()
	entry := NewGarmentEntry(testPhoto(1), CategoryTop, "shirt")
	store.Append(entry)

	sel := NewSelectionSet()
	sel.Toggle(entry.ID)
	assert.NoError(t, sel.Validate(store))

	sel.Toggle("ghost")
	assert.Error(t, sel.Validate(store))
}
