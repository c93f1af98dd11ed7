package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codespark-server/internal/model"
	"codespark-server/internal/testutil"
	"codespark-server/pkg/util"
)

func TestAISessionRepository_ListOrderLimitFilter(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAISessionRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", "a@x.com", "")
	bob := testutil.CreateUser(t, db, "bob", "b@x.com", "")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		owner := alice.ID
		var project *int64
		if i%2 == 1 {
			owner = bob.ID
			project = util.Int64Ptr(7)
		}
		s := &model.AISession{
			UserID:      owner,
			ProjectID:   project,
			SessionType: model.SessionTypeGeneral,
			Prompt:      "p",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, s))
	}

	all, err := repo.List(ctx, SessionFilter{})
	require.NoError(t, err)
	require.Len(t, all, MaxSessionHistory)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].CreatedAt.After(all[i].CreatedAt), "not strictly descending at %d", i)
	}
	assert.Equal(t, base.Add(59*time.Minute).Unix(), all[0].CreatedAt.Unix())

	aliceOnly, err := repo.List(ctx, SessionFilter{UserID: &alice.ID})
	require.NoError(t, err)
	assert.Len(t, aliceOnly, 30)
	for _, s := range aliceOnly {
		assert.Equal(t, alice.ID, s.UserID)
	}

	both, err := repo.List(ctx, SessionFilter{UserID: &bob.ID, ProjectID: util.Int64Ptr(7)})
	require.NoError(t, err)
	assert.Len(t, both, 30)

	none, err := repo.List(ctx, SessionFilter{UserID: &alice.ID, ProjectID: util.Int64Ptr(7)})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestAISessionRepository_FinishOnce(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAISessionRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice", "a@x.com", "")
	s := &model.AISession{UserID: user.ID, SessionType: model.SessionTypeGeneral, Prompt: "hi"}
	require.NoError(t, repo.Create(ctx, s))
	assert.Equal(t, model.AISessionStatusPending, s.Status)

	s.Status = model.AISessionStatusCompleted
	s.Response = util.StringPtr("hello")
	s.TokensUsed = 12
	require.NoError(t, repo.Finish(ctx, s))

	stored, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AISessionStatusCompleted, stored.Status)
	assert.Equal(t, "hello", *stored.Response)
	assert.Equal(t, 12, stored.TokensUsed)

	s.Status = model.AISessionStatusFailed
	s.Response = util.StringPtr("boom")
	assert.ErrorIs(t, repo.Finish(ctx, s), ErrSessionAlreadyFinal)

	stored, err = repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AISessionStatusCompleted, stored.Status)
}

func TestAISessionRepository_FinishRejectsPending(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAISessionRepository(db)

	s := &model.AISession{ID: 1, Status: model.AISessionStatusPending}
	assert.ErrorIs(t, repo.Finish(context.Background(), s), ErrInvalidTransition)
}

func TestAISessionRepository_GetByIDMissing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAISessionRepository(db)

	s, err := repo.GetByID(context.Background(), 999)
	assert.NoError(t, err)
	assert.Nil(t, s)
}
