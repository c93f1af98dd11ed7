package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codespark-server/internal/model"
	"codespark-server/internal/testutil"
	"codespark-server/pkg/util"
)

func TestUserRepository_GetByLogin(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", "a@x.com", "")

	byName, err := repo.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, alice.ID, byName.ID)

	byEmail, err := repo.GetByLogin(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, alice.ID, byEmail.ID)

	missing, err := repo.GetByLogin(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_Duplicates(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, "alice", "a@x.com", "")

	exists, err := repo.ExistsByUsernameOrEmail(ctx, "alice", "other@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsernameOrEmail(ctx, "other", "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsernameOrEmail(ctx, "other", "other@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	err = repo.Create(ctx, &model.User{Username: "alice", Email: util.StringPtr("z@x.com")})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCodeFileRepository_RecentAndByIDs(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCodeFileRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice", "a@x.com", "")
	project := testutil.CreateProject(t, db, user.ID, "demo", "go")

	var ids []int64
	for _, p := range []string{"a.go", "b.go", "c.go", "d.go", "e.go", "f.go"} {
		ids = append(ids, testutil.CreateFile(t, db, project.ID, p, "go", p).ID)
	}

	recent, err := repo.ListRecentByProjectID(ctx, project.ID, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, "f.go", recent[0].FilePath)

	files, err := repo.GetByIDs(ctx, []int64{ids[2], 999, ids[0]})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "c.go", files[0].FilePath)
	assert.Equal(t, "a.go", files[1].FilePath)
}
