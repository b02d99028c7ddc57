package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"gallery_api/internal/domain/models"
	"gallery_api/internal/storage"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"
)

const (
	galleriesTable = "galleries"

	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

var galleryColumns = []string{
	"owner_id",
	"item_id",
	"name",
	"description",
	"images",
	"version",
	"created_at",
	"updated_at",
}

type GalleryRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewGalleryRepo(db *pgxpool.Pool) *GalleryRepo {
	return &GalleryRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetGallery returns the gallery for (ownerID, itemID) or storage.ErrGalleryNotFound.
func (r *GalleryRepo) GetGallery(ctx context.Context, ownerID, itemID string) (models.Gallery, error) {
	const op = "repository.GalleryRepo.GetGallery"

	query, args, err := r.sb.Select(galleryColumns...).
		From(galleriesTable).
		Where(squirrel.Eq{"owner_id": ownerID, "item_id": itemID}).
		ToSql()
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	gallery, err := scanGallery(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Gallery{}, fmt.Errorf("%s: %w", op, storage.ErrGalleryNotFound)
		}
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	return gallery, nil
}

// GetGalleryForUpdate is GetGallery; the database holds no cached copies.
func (r *GalleryRepo) GetGalleryForUpdate(ctx context.Context, ownerID, itemID string) (models.Gallery, error) {
	return r.GetGallery(ctx, ownerID, itemID)
}

// CreateGallery inserts a new gallery. An existing key yields storage.ErrGalleryExists.
func (r *GalleryRepo) CreateGallery(ctx context.Context, gallery models.Gallery) (models.Gallery, error) {
	const op = "repository.GalleryRepo.CreateGallery"

	images, err := encodeImages(gallery.Images)
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	createdAt, updatedAt := timestamps(gallery)

	query, args, err := r.sb.Insert(galleriesTable).
		Columns(galleryColumns...).
		Values(
			gallery.OwnerID,
			gallery.ItemID,
			gallery.Name,
			gallery.Description,
			images,
			1,
			createdAt,
			updatedAt,
		).
		Suffix("ON CONFLICT (owner_id, item_id) DO NOTHING RETURNING version, created_at, updated_at").
		ToSql()
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&gallery.Version, &gallery.CreatedAt, &gallery.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Gallery{}, fmt.Errorf("%s: %w", op, storage.ErrGalleryExists)
		}
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	return gallery, nil
}

// SaveGallery overwrites the whole record and bumps its version.
func (r *GalleryRepo) SaveGallery(ctx context.Context, gallery models.Gallery) (models.Gallery, error) {
	const op = "repository.GalleryRepo.SaveGallery"

	images, err := encodeImages(gallery.Images)
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	createdAt, updatedAt := timestamps(gallery)

	query, args, err := r.sb.Insert(galleriesTable).
		Columns(galleryColumns...).
		Values(
			gallery.OwnerID,
			gallery.ItemID,
			gallery.Name,
			gallery.Description,
			images,
			1,
			createdAt,
			updatedAt,
		).
		Suffix(`ON CONFLICT (owner_id, item_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			images = EXCLUDED.images,
			version = galleries.version + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING version, created_at, updated_at`).
		ToSql()
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&gallery.Version, &gallery.CreatedAt, &gallery.UpdatedAt)
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	return gallery, nil
}

// SaveGalleryVersioned overwrites the record only when its stored version
// equals expectedVersion.
func (r *GalleryRepo) SaveGalleryVersioned(ctx context.Context, gallery models.Gallery, expectedVersion int64) (models.Gallery, error) {
	const op = "repository.GalleryRepo.SaveGalleryVersioned"

	images, err := encodeImages(gallery.Images)
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	_, updatedAt := timestamps(gallery)

	query, args, err := r.sb.Update(galleriesTable).
		Set("name", gallery.Name).
		Set("description", gallery.Description).
		Set("images", images).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", updatedAt).
		Where(squirrel.Eq{
			"owner_id": gallery.OwnerID,
			"item_id":  gallery.ItemID,
			"version":  expectedVersion,
		}).
		Suffix("RETURNING version, created_at, updated_at").
		ToSql()
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&gallery.Version, &gallery.CreatedAt, &gallery.UpdatedAt)
	if err == nil {
		return gallery, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	// Nothing matched: either the row is gone or someone else wrote first.
	if _, err := r.GetGallery(ctx, gallery.OwnerID, gallery.ItemID); err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Gallery{}, fmt.Errorf("%s: %w", op, storage.ErrVersionConflict)
}

// DeleteGallery removes the gallery or returns storage.ErrGalleryNotFound.
func (r *GalleryRepo) DeleteGallery(ctx context.Context, ownerID, itemID string) error {
	const op = "repository.GalleryRepo.DeleteGallery"

	query, args, err := r.sb.Delete(galleriesTable).
		Where(squirrel.Eq{"owner_id": ownerID, "item_id": itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrGalleryNotFound)
	}

	return nil
}

// GetGalleryPaged returns the owner's galleries ordered by item id. The returned
// token is empty on the last page.
func (r *GalleryRepo) GetGalleryPaged(ctx context.Context, ownerID string, limit int, pageToken string) ([]models.Gallery, string, error) {
	const op = "repository.GalleryRepo.GetGalleryPaged"

	limit = NormalizeLimit(limit)

	queryBuilder := r.sb.Select(galleryColumns...).
		From(galleriesTable).
		Where(squirrel.Eq{"owner_id": ownerID})

	if pageToken != "" {
		after, err := DecodePageToken(pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", op, err)
		}
		queryBuilder = queryBuilder.Where(squirrel.Gt{"item_id": after})
	}

	// One extra row tells us whether another page exists.
	query, args, err := queryBuilder.
		OrderBy("item_id ASC").
		Limit(uint64(limit + 1)).
		ToSql()
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	galleries, err := r.queryGalleries(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	var next string
	if len(galleries) > limit {
		galleries = galleries[:limit]
		next = EncodePageToken(galleries[limit-1].ItemID)
	}

	return galleries, next, nil
}

// GetBatchGallery loads the galleries for every ownerID -> itemID pair in ids.
func (r *GalleryRepo) GetBatchGallery(ctx context.Context, ids map[string]string) ([]models.Gallery, error) {
	const op = "repository.GalleryRepo.GetBatchGallery"

	if len(ids) == 0 {
		return []models.Gallery{}, nil
	}

	owners := make([]string, 0, len(ids))
	for owner := range ids {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	items := make([]string, 0, len(owners))
	for _, owner := range owners {
		items = append(items, ids[owner])
	}

	query, args, err := r.sb.Select(galleryColumns...).
		From(galleriesTable).
		Where("(owner_id, item_id) IN (SELECT * FROM unnest(?::text[], ?::text[]))", pq.Array(owners), pq.Array(items)).
		OrderBy("owner_id ASC", "item_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	galleries, err := r.queryGalleries(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return galleries, nil
}

func (r *GalleryRepo) queryGalleries(ctx context.Context, query string, args ...interface{}) ([]models.Gallery, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	galleries := make([]models.Gallery, 0)
	for rows.Next() {
		gallery, err := scanGallery(rows)
		if err != nil {
			return nil, err
		}
		galleries = append(galleries, gallery)
	}

	return galleries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGallery(row rowScanner) (models.Gallery, error) {
	var (
		gallery models.Gallery
		images  []byte
	)

	err := row.Scan(
		&gallery.OwnerID,
		&gallery.ItemID,
		&gallery.Name,
		&gallery.Description,
		&images,
		&gallery.Version,
		&gallery.CreatedAt,
		&gallery.UpdatedAt,
	)
	if err != nil {
		return models.Gallery{}, err
	}

	gallery.Images = make([]models.Image, 0)
	if len(images) > 0 {
		if err := json.Unmarshal(images, &gallery.Images); err != nil {
			return models.Gallery{}, fmt.Errorf("decode images: %w", err)
		}
	}

	return gallery, nil
}

func encodeImages(images []models.Image) (string, error) {
	if images == nil {
		images = []models.Image{}
	}

	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("encode images: %w", err)
	}

	return string(b), nil
}

func timestamps(gallery models.Gallery) (time.Time, time.Time) {
	now := time.Now().UTC()

	createdAt, updatedAt := gallery.CreatedAt, gallery.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return createdAt, updatedAt
}

// NormalizeLimit clamps a requested page size to (0, MaxPageLimit].
func NormalizeLimit(limit int) int {
	if limit < 1 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}

// EncodePageToken turns the last item id of a page into an opaque token.
func EncodePageToken(itemID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(itemID))
}

// DecodePageToken reverses EncodePageToken.
func DecodePageToken(token string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(b) == 0 {
		return "", storage.ErrInvalidPageToken
	}
	return string(b), nil
}
