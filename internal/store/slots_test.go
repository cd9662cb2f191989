package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queueDoc struct {
	Items []string `json:"items"`
}

func TestSlots_LoadSaveDelete(t *testing.T) {
	ctx := context.Background()
	slots := NewSlots(newSQLiteDB(t))

	var doc queueDoc
	found, err := slots.Load(ctx, "rentalRequests", &doc)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, slots.Save(ctx, "rentalRequests", queueDoc{Items: []string{"a"}}))
	require.NoError(t, slots.Save(ctx, "rentalRequests", queueDoc{Items: []string{"b", "a"}}))

	found, err = slots.Load(ctx, "rentalRequests", &doc)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"b", "a"}, doc.Items)

	require.NoError(t, slots.Delete(ctx, "rentalRequests"))
	require.NoError(t, slots.Delete(ctx, "rentalRequests"))
	found, err = slots.Load(ctx, "rentalRequests", &doc)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSlots_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	slots := NewSlots(newSQLiteDB(t))
	require.NoError(t, slots.Save(ctx, "k", queueDoc{Items: []string{"kept"}}))

	boom := errors.New("boom")
	err := slots.Transaction(ctx, func(tx *Slots) error {
		if err := tx.Save(ctx, "k", queueDoc{Items: []string{"lost"}}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var doc queueDoc
	_, err = slots.Load(ctx, "k", &doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, doc.Items)
}

func TestSlots_DecodeError(t *testing.T) {
	ctx := context.Background()
	slots := NewSlots(newSQLiteDB(t))
	require.NoError(t, slots.Save(ctx, "k", "not an object"))

	var doc queueDoc
	_, err := slots.Load(ctx, "k", &doc)
	assert.ErrorContains(t, err, "failed to decode slot k")
}
