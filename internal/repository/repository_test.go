package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gallery_api/internal/domain/models"
	"gallery_api/internal/repository"
	"gallery_api/internal/storage"
	"gallery_api/internal/storage/postgresql"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	testCtx = context.Background()
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = pgContainer.Terminate(ctx)
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf(
		"postgres://test:test@%s:%s/testdb?sslmode=disable",
		host,
		port.Port(),
	)

	_, err = postgresql.Migrate(connStr)
	require.NoError(t, err)

	pool, err := pgxpool.Connect(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(pool.Close)

	return pool
}

func fakeGallery(ownerID, itemID string) models.Gallery {
	name := gofakeit.Word()
	g := models.NewGallery(ownerID, itemID, time.Now().UTC())
	g.Name = &name
	g.AddImage(gofakeit.URL(), 0)
	g.AddImage(gofakeit.URL(), 1)
	return g
}

func TestGalleryRepo(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewGalleryRepo(db)

	owner := gofakeit.UUID()

	t.Run("get missing gallery", func(t *testing.T) {
		_, err := repo.GetGallery(testCtx, owner, "missing")
		assert.ErrorIs(t, err, storage.ErrGalleryNotFound)
	})

	t.Run("create and get", func(t *testing.T) {
		g := fakeGallery(owner, "item-create")

		created, err := repo.CreateGallery(testCtx, g)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.Version)

		got, err := repo.GetGallery(testCtx, owner, "item-create")
		require.NoError(t, err)
		assert.Equal(t, g.Images, got.Images)
		assert.Equal(t, *g.Name, *got.Name)
		assert.Nil(t, got.Description)
		assert.WithinDuration(t, g.CreatedAt, got.CreatedAt, time.Millisecond)

		_, err = repo.CreateGallery(testCtx, g)
		assert.ErrorIs(t, err, storage.ErrGalleryExists)
	})

	t.Run("save overwrites and bumps version", func(t *testing.T) {
		g := fakeGallery(owner, "item-save")
		created, err := repo.CreateGallery(testCtx, g)
		require.NoError(t, err)

		created.ReplaceImage(created.Images[0].ID, "https://example.com/new.png", 9)
		created.Touch(time.Now().UTC().Add(time.Minute))

		saved, err := repo.SaveGallery(testCtx, created)
		require.NoError(t, err)
		assert.Equal(t, int64(2), saved.Version)

		got, err := repo.GetGallery(testCtx, owner, "item-save")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/new.png", got.Images[0].URL)
		assert.Equal(t, 9, got.Images[0].Rank)
		assert.Equal(t, int64(2), got.Version)

		forUpdate, err := repo.GetGalleryForUpdate(testCtx, owner, "item-save")
		require.NoError(t, err)
		assert.Equal(t, got.Version, forUpdate.Version)
	})

	t.Run("versioned save detects conflicts", func(t *testing.T) {
		g := fakeGallery(owner, "item-versioned")
		created, err := repo.CreateGallery(testCtx, g)
		require.NoError(t, err)

		first := created
		first.AddImage("https://example.com/a.png", 3)
		_, err = repo.SaveGalleryVersioned(testCtx, first, created.Version)
		require.NoError(t, err)

		second := created
		second.AddImage("https://example.com/b.png", 4)
		_, err = repo.SaveGalleryVersioned(testCtx, second, created.Version)
		assert.ErrorIs(t, err, storage.ErrVersionConflict)

		_, err = repo.SaveGalleryVersioned(testCtx, fakeGallery(owner, "never-created"), 1)
		assert.ErrorIs(t, err, storage.ErrGalleryNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := repo.CreateGallery(testCtx, fakeGallery(owner, "item-delete"))
		require.NoError(t, err)

		require.NoError(t, repo.DeleteGallery(testCtx, owner, "item-delete"))
		assert.ErrorIs(t, repo.DeleteGallery(testCtx, owner, "item-delete"), storage.ErrGalleryNotFound)
	})
}

func TestGalleryRepo_GetGalleryPaged(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewGalleryRepo(db)

	owner := gofakeit.UUID()
	for i := 0; i < 5; i++ {
		_, err := repo.CreateGallery(testCtx, fakeGallery(owner, fmt.Sprintf("item-%02d", i)))
		require.NoError(t, err)
	}
	_, err := repo.CreateGallery(testCtx, fakeGallery(gofakeit.UUID(), "item-00"))
	require.NoError(t, err)

	page, next, err := repo.GetGalleryPaged(testCtx, owner, 2, "")
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "item-00", page[0].ItemID)
	assert.Equal(t, "item-01", page[1].ItemID)
	require.NotEmpty(t, next)

	page, next, err = repo.GetGalleryPaged(testCtx, owner, 2, next)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "item-02", page[0].ItemID)

	page, next, err = repo.GetGalleryPaged(testCtx, owner, 2, next)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "item-04", page[0].ItemID)
	assert.Empty(t, next)

	_, _, err = repo.GetGalleryPaged(testCtx, owner, 2, "%%%")
	assert.ErrorIs(t, err, storage.ErrInvalidPageToken)
}

func TestGalleryRepo_GetBatchGallery(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewGalleryRepo(db)

	ownerA, ownerB := gofakeit.UUID(), gofakeit.UUID()
	for _, g := range []models.Gallery{
		fakeGallery(ownerA, "a1"),
		fakeGallery(ownerA, "a2"),
		fakeGallery(ownerB, "b1"),
	} {
		_, err := repo.CreateGallery(testCtx, g)
		require.NoError(t, err)
	}

	got, err := repo.GetBatchGallery(testCtx, map[string]string{
		ownerA:          "a2",
		ownerB:          "b1",
		gofakeit.UUID(): "missing",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	keys := map[string]string{}
	for _, g := range got {
		keys[g.OwnerID] = g.ItemID
	}
	assert.Equal(t, map[string]string{ownerA: "a2", ownerB: "b1"}, keys)

	empty, err := repo.GetBatchGallery(testCtx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPageToken(t *testing.T) {
	token := repository.EncodePageToken("item-42")

	got, err := repository.DecodePageToken(token)
	require.NoError(t, err)
	assert.Equal(t, "item-42", got)

	_, err = repository.DecodePageToken("")
	assert.ErrorIs(t, err, storage.ErrInvalidPageToken)

	_, err = repository.DecodePageToken("not base64!")
	assert.ErrorIs(t, err, storage.ErrInvalidPageToken)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, repository.DefaultPageLimit, repository.NormalizeLimit(0))
	assert.Equal(t, repository.DefaultPageLimit, repository.NormalizeLimit(-3))
	assert.Equal(t, 7, repository.NormalizeLimit(7))
	assert.Equal(t, repository.MaxPageLimit, repository.NormalizeLimit(1000))
}
