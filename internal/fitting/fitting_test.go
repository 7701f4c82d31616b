package fitting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycwei/smartlook/internal/capture"
	"github.com/ycwei/smartlook/internal/llm"
	"github.com/ycwei/smartlook/internal/wardrobe"
)

func storeWith(t *testing.T, datas ...string) (*wardrobe.Store, []string) {
	t.Helper()
	store := wardrobe.NewStore()
	ids := make([]string, len(datas))
	for i, data := range datas {
		entry := wardrobe.NewGarmentEntry(
			capture.Photo{Data: []byte(data), MIMEType: "image/jpeg"},
			wardrobe.CategoryTop,
			data,
		)
		store.Append(entry)
		ids[i] = entry.ID
	}
	return store, ids
}

func TestGenerate_PreservesSelectionOrder(t *testing.T) {
	store, ids := storeWith(t, "first", "second", "third")

	var got [][]byte
	gateway := &llm.MockGateway{
		GenerateWardrobeTryOnFunc: func(ctx context.Context, userImage []byte, garmentImages [][]byte) (*llm.TryOnResult, error) {
			got = garmentImages
			return &llm.TryOnResult{Advice: "ok"}, nil
		},
	}
	o := NewOrchestrator(gateway)

	// Select in reverse of insertion order.
	selection := []string{ids[2], ids[0], ids[1]}
	userPhoto := capture.Photo{Data: []byte("portrait"), MIMEType: "image/jpeg"}

	_, err := o.Generate(context.Background(), userPhoto, store, selection)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []byte("third"), got[0])
	assert.Equal(t, []byte("first"), got[1])
	assert.Equal(t, []byte("second"), got[2])
}

func TestGenerate_NoUserPhoto(t *testing.T) {
	store, ids := storeWith(t, "garment")
	o := NewOrchestrator(&llm.MockGateway{})

	_, err := o.Generate(context.Background(), capture.Photo{}, store, ids)
	assert.ErrorIs(t, err, ErrNoUserPhoto)
}

func TestGenerate_EmptySelection(t *testing.T) {
	store, _ := storeWith(t, "garment")
	o := NewOrchestrator(&llm.MockGateway{})
	userPhoto := capture.Photo{Data: []byte("portrait"), MIMEType: "image/jpeg"}

	_, err := o.Generate(context.Background(), userPhoto, store, nil)
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestGenerate_UnknownSelectionID(t *testing.T) {
	store, _ := storeWith(t, "garment")
	o := NewOrchestrator(&llm.MockGateway{})
	userPhoto := capture.Photo{Data: []byte("portrait"), MIMEType: "image/jpeg"}

	_, err := o.Generate(context.Background(), userPhoto, store, []string{"missing-id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing-id")
}

func TestGenerate_GatewayErrorPropagates(t *testing.T) {
	store, ids := storeWith(t, "garment")
	gateway := &llm.MockGateway{
		GenerateWardrobeTryOnFunc: func(ctx context.Context, userImage []byte, garmentImages [][]byte) (*llm.TryOnResult, error) {
			return nil, llm.ErrTryOn
		},
	}
	o := NewOrchestrator(gateway)
	userPhoto := capture.Photo{Data: []byte("portrait"), MIMEType: "image/jpeg"}

	_, err := o.Generate(context.Background(), userPhoto, store, ids)
	assert.ErrorIs(t, err, llm.ErrTryOn)
}
