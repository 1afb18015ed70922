// Package storetest holds the behaviour every SessionStore must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewStore constructs an isolated store for a single test.
type NewStore func(t *testing.T) ports.SessionStore

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetThenGet", func(t *testing.T) {
		s := newStore(t)
		id := uuid.NewString()

		require.NoError(t, s.Set(ctx, id, map[string]string{
			core.FieldToken:    "tok",
			core.FieldUserName: "alice",
		}, time.Minute))

		got, err := s.Get(ctx, id, core.FieldToken)
		require.NoError(t, err)
		assert.Equal(t, "tok", got)

		all, err := s.GetAll(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{core.FieldToken: "tok", core.FieldUserName: "alice"}, all)
	})

	t.Run("SetMerges", func(t *testing.T) {
		s := newStore(t)
		id := uuid.NewString()

		require.NoError(t, s.Set(ctx, id, map[string]string{core.FieldToken: "tok"}, time.Minute))
		require.NoError(t, s.Set(ctx, id, map[string]string{core.FieldName: "Alice"}, time.Minute))

		all, err := s.GetAll(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "tok", all[core.FieldToken])
		assert.Equal(t, "Alice", all[core.FieldName])
	})

	t.Run("MissingSession", func(t *testing.T) {
		s := newStore(t)
		id := uuid.NewString()

		_, err := s.Get(ctx, id, core.FieldToken)
		assert.ErrorIs(t, err, core.ErrSessionNotFound)

		_, err = s.GetAll(ctx, id)
		assert.ErrorIs(t, err, core.ErrSessionNotFound)
	})

	t.Run("MissingField", func(t *testing.T) {
		s := newStore(t)
		id := uuid.NewString()

		require.NoError(t, s.Set(ctx, id, map[string]string{core.FieldToken: "tok"}, time.Minute))

		_, err := s.Get(ctx, id, core.FieldWalletAddress)
		assert.ErrorIs(t, err, core.ErrSessionNotFound)
	})

	t.Run("ClearDropsEverything", func(t *testing.T) {
		s := newStore(t)
		id := uuid.NewString()
		other := uuid.NewString()

		sess := &core.Session{Token: "tok", UserName: "alice", Name: "Alice", WalletAddress: "0xabc", UserID: "u-1"}
		require.NoError(t, s.Set(ctx, id, sess.Fields(), time.Minute))
		require.NoError(t, s.Set(ctx, other, sess.Fields(), time.Minute))

		require.NoError(t, s.Clear(ctx, id))

		for _, field := range core.SessionFields {
			_, err := s.Get(ctx, id, field)
			assert.ErrorIs(t, err, core.ErrSessionNotFound, field)
		}

		_, err := s.GetAll(ctx, other)
		assert.NoError(t, err, "clearing one session must not touch another")
	})

	t.Run("ClearUnknownIsNoop", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Clear(ctx, uuid.NewString()))
	})
}
