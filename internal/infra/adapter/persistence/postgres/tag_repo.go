package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type TagRepo struct{ db *sql.DB }

func NewTagRepo(db *sql.DB) repository.TagRepository {
	return &TagRepo{db: db}
}

const tagSelect = `
SELECT t.id, t.name, t.slug, t.description, t.color, t.created_at,
       (SELECT COUNT(*) FROM article_tags c WHERE c.tag_id = t.id) AS article_count
FROM tags t`

func scanTag(s rowScanner) (*entity.Tag, error) {
	var tag entity.Tag
	if err := s.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.Description, &tag.Color,
		&tag.CreatedAt, &tag.ArticleCount); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (repo *TagRepo) Get(ctx context.Context, id string) (*entity.Tag, error) {
	return repo.getOne(ctx, "Get", tagSelect+"\nWHERE t.id = $1\nLIMIT 1", id)
}

func (repo *TagRepo) GetBySlug(ctx context.Context, slug string) (*entity.Tag, error) {
	return repo.getOne(ctx, "GetBySlug", tagSelect+"\nWHERE t.slug = $1\nLIMIT 1", slug)
}

func (repo *TagRepo) getOne(ctx context.Context, op, query string, arg any) (*entity.Tag, error) {
	tag, err := scanTag(conn(ctx, repo.db).QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tag, nil
}

func tagWhere(query string) (string, []any) {
	if q := strings.TrimSpace(query); q != "" {
		return "WHERE t.name ILIKE $1 OR t.description ILIKE $1", []any{escapeLike(q)}
	}
	return "", nil
}

func (repo *TagRepo) List(ctx context.Context, query string, offset, limit int) ([]*entity.Tag, error) {
	where, args := tagWhere(query)
	paramIndex := len(args) + 1
	args = append(args, limit, offset)

	q := fmt.Sprintf("%s\n%s\nORDER BY t.name ASC\nLIMIT $%d OFFSET $%d", tagSelect, where, paramIndex, paramIndex+1)
	rows, err := conn(ctx, repo.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tags := make([]*entity.Tag, 0, limit)
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (repo *TagRepo) Count(ctx context.Context, query string) (int64, error) {
	where, args := tagWhere(query)
	var count int64
	if err := conn(ctx, repo.db).QueryRowContext(ctx, "SELECT COUNT(*) FROM tags t "+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func (repo *TagRepo) Create(ctx context.Context, tag *entity.Tag) error {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	const query = `
INSERT INTO tags (id, name, slug, description, color, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := conn(ctx, repo.db).ExecContext(ctx, query,
		tag.ID, tag.Name, tag.Slug, tag.Description, tag.Color, tag.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", tagWriteErr(err))
	}
	return nil
}

func (repo *TagRepo) Update(ctx context.Context, tag *entity.Tag) error {
	const query = `
UPDATE tags SET
       name        = $1,
       slug        = $2,
       description = $3,
       color       = $4
WHERE id = $5`
	res, err := conn(ctx, repo.db).ExecContext(ctx, query,
		tag.Name, tag.Slug, tag.Description, tag.Color, tag.ID)
	if err != nil {
		return fmt.Errorf("Update: %w", tagWriteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *TagRepo) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, repo.db).ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *TagRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM tags WHERE slug = $1 AND ($2 = '' OR id::text <> $2))`
	var exists bool
	if err := conn(ctx, repo.db).QueryRowContext(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("SlugExists: %w", err)
	}
	return exists, nil
}

func (repo *TagRepo) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM tags WHERE name = $1 AND ($2 = '' OR id::text <> $2))`
	var exists bool
	if err := conn(ctx, repo.db).QueryRowContext(ctx, query, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("NameExists: %w", err)
	}
	return exists, nil
}

func (repo *TagRepo) CountExisting(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int
	err := conn(ctx, repo.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags WHERE id::text = ANY($1)`, pq.Array(ids)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountExisting: %w", err)
	}
	return count, nil
}

func (repo *TagRepo) ListByArticle(ctx context.Context, articleID string) ([]entity.Tag, error) {
	const query = `
SELECT t.id, t.name, t.slug, t.description, t.color, t.created_at
FROM tags t
INNER JOIN article_tags art ON art.tag_id = t.id
WHERE art.article_id = $1
ORDER BY t.name ASC`
	rows, err := conn(ctx, repo.db).QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("ListByArticle: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tags := []entity.Tag{}
	for rows.Next() {
		var tag entity.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.Description, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListByArticle: Scan: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (repo *TagRepo) IsAttached(ctx context.Context, articleID, tagID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM article_tags WHERE article_id = $1 AND tag_id = $2)`
	var exists bool
	if err := conn(ctx, repo.db).QueryRowContext(ctx, query, articleID, tagID).Scan(&exists); err != nil {
		return false, fmt.Errorf("IsAttached: %w", err)
	}
	return exists, nil
}

func (repo *TagRepo) Attach(ctx context.Context, articleID, tagID string) error {
	_, err := conn(ctx, repo.db).ExecContext(ctx,
		`INSERT INTO article_tags (article_id, tag_id) VALUES ($1, $2)`, articleID, tagID)
	if err != nil {
		if uniqueConstraint(err) != "" {
			return fmt.Errorf("Attach: %w", entity.Conflict("tag is already associated with this article"))
		}
		return fmt.Errorf("Attach: %w", err)
	}
	return nil
}

func (repo *TagRepo) Detach(ctx context.Context, articleID, tagID string) (bool, error) {
	res, err := conn(ctx, repo.db).ExecContext(ctx,
		`DELETE FROM article_tags WHERE article_id = $1 AND tag_id = $2`, articleID, tagID)
	if err != nil {
		return false, fmt.Errorf("Detach: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func tagWriteErr(err error) error {
	switch uniqueConstraint(err) {
	case "tags_name_key":
		return repository.ErrDuplicateName
	case "tags_slug_key":
		return repository.ErrDuplicateSlug
	}
	return err
}
