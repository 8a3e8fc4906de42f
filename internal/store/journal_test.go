package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/wire"
)

func TestStartSession_UUIDv7(t *testing.T) {
	s := createTestStore(t)
	assert.Empty(t, s.Session())

	id, err := s.StartSession()
	require.NoError(t, err)
	assert.Equal(t, id, s.Session())

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestRecord_StartsSessionLazily(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, DirectionIn, wire.NewSync(3, 40)))
	require.NotEmpty(t, s.Session())

	entries, err := s.ReadJournal(ctx, s.Session())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, DirectionIn, e.Direction)
	assert.Equal(t, uint8(3), e.ClientID)
	assert.Equal(t, uint8(40), e.Time)
	assert.Equal(t, wire.KindSync, e.Kind)
	assert.Equal(t, wire.NewSync(3, 40), e.Message)
	assert.False(t, e.RecordedAt.IsZero())
}

func TestRecord_Rejects(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.Record(ctx, "sideways", wire.NewSync(1, 0)), "invalid direction")
	assert.ErrorIs(t, s.Record(ctx, DirectionOut, []byte{1, 2}), wire.ErrShortMessage)
}

func TestReadJournal_SeqOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.StartSession()
	require.NoError(t, err)

	msgs := [][]byte{
		wire.NewLock(2, 1, 1, true),
		wire.NewSync(2, 2),
		wire.NewLock(2, 3, 1, false),
		wire.NewPing(2, 4),
	}
	for i, m := range msgs {
		dir := DirectionIn
		if i%2 == 1 {
			dir = DirectionOut
		}
		require.NoError(t, s.Record(ctx, dir, m))
	}

	entries, err := s.ReadJournal(ctx, s.Session())
	require.NoError(t, err)
	require.Len(t, entries, len(msgs))

	for i, e := range entries {
		assert.Equal(t, msgs[i], e.Message)
		assert.Equal(t, uint8(i+1), e.Time)
		if i > 0 {
			assert.Greater(t, e.Seq, entries[i-1].Seq)
		}
	}
	assert.Equal(t, DirectionOut, entries[1].Direction)
}

func TestReadJournal_SessionsAreIsolated(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.StartSession()
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, DirectionIn, wire.NewSync(1, 1)))

	second, err := s.StartSession()
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, DirectionIn, wire.NewSync(1, 2)))
	require.NoError(t, s.Record(ctx, DirectionIn, wire.NewSync(1, 3)))

	a, err := s.ReadJournal(ctx, first)
	require.NoError(t, err)
	assert.Len(t, a, 1)

	b, err := s.ReadJournal(ctx, second)
	require.NoError(t, err)
	assert.Len(t, b, 2)

	none, err := s.ReadJournal(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = s.ReadJournal(ctx, "")
	assert.Error(t, err)

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first, sessions[0].ID, "v7 ids sort by creation")
	assert.Equal(t, 1, sessions[0].Messages)
	assert.Equal(t, second, sessions[1].ID)
	assert.Equal(t, 2, sessions[1].Messages)
}
