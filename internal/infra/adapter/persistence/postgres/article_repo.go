package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const articleSelect = `
SELECT a.id, a.title, a.content, a.excerpt, a.slug, a.status, a.published_at,
       a.user_id, a.created_at, a.updated_at,
       u.id, u.email, u.first_name, u.last_name, u.created_at
FROM articles a
INNER JOIN users u ON u.id = a.user_id`

type ArticleRepo struct {
	db           *sql.DB
	queryBuilder *ArticleQueryBuilder
}

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{
		db:           db,
		queryBuilder: NewArticleQueryBuilder(),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(s rowScanner) (*entity.Article, error) {
	var (
		a       entity.Article
		author  entity.User
		content []byte
	)
	if err := s.Scan(&a.ID, &a.Title, &content, &a.Excerpt, &a.Slug, &a.Status, &a.PublishedAt,
		&a.UserID, &a.CreatedAt, &a.UpdatedAt,
		&author.ID, &author.Email, &author.FirstName, &author.LastName, &author.CreatedAt); err != nil {
		return nil, err
	}
	a.Content = json.RawMessage(content)
	a.Author = &author
	a.Tags = []entity.Tag{}
	return &a, nil
}

func (repo *ArticleRepo) Get(ctx context.Context, id string) (*entity.Article, error) {
	return repo.getOne(ctx, "Get", articleSelect+"\nWHERE a.id = $1\nLIMIT 1", id)
}

func (repo *ArticleRepo) GetBySlug(ctx context.Context, slug string) (*entity.Article, error) {
	return repo.getOne(ctx, "GetBySlug", articleSelect+"\nWHERE a.slug = $1\nLIMIT 1", slug)
}

func (repo *ArticleRepo) getOne(ctx context.Context, op, query string, arg any) (*entity.Article, error) {
	db := conn(ctx, repo.db)
	article, err := scanArticle(db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := loadTags(ctx, db, []*entity.Article{article}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return article, nil
}

// List retrieves a page of articles matching filters, newest first.
func (repo *ArticleRepo) List(ctx context.Context, filters repository.ArticleFilters, offset, limit int) ([]*entity.Article, error) {
	whereClause, args := repo.queryBuilder.BuildWhereClause(filters)
	paramIndex := len(args) + 1
	args = append(args, limit, offset)

	query := fmt.Sprintf(`%s
%s
ORDER BY a.created_at DESC
LIMIT $%d OFFSET $%d`, articleSelect, whereClause, paramIndex, paramIndex+1)

	db := conn(ctx, repo.db)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, limit)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	if err := loadTags(ctx, db, articles); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return articles, nil
}

// Count returns the number of articles matching filters.
func (repo *ArticleRepo) Count(ctx context.Context, filters repository.ArticleFilters) (int64, error) {
	whereClause, args := repo.queryBuilder.BuildWhereClause(filters)
	query := "SELECT COUNT(*) FROM articles a " + whereClause

	var count int64
	if err := conn(ctx, repo.db).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func (repo *ArticleRepo) Create(ctx context.Context, article *entity.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	const query = `
INSERT INTO articles
       (id, title, content, excerpt, slug, status, published_at, user_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := conn(ctx, repo.db).ExecContext(ctx, query,
		article.ID, article.Title, jsonOrNull(article.Content), article.Excerpt, article.Slug,
		string(article.Status), article.PublishedAt, article.UserID, article.CreatedAt, article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", articleWriteErr(err))
	}
	return nil
}

func (repo *ArticleRepo) Update(ctx context.Context, article *entity.Article) error {
	const query = `
UPDATE articles SET
       title        = $1,
       content      = $2,
       excerpt      = $3,
       slug         = $4,
       status       = $5,
       published_at = $6,
       updated_at   = $7
WHERE id = $8`
	res, err := conn(ctx, repo.db).ExecContext(ctx, query,
		article.Title, jsonOrNull(article.Content), article.Excerpt, article.Slug,
		string(article.Status), article.PublishedAt, article.UpdatedAt, article.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", articleWriteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *ArticleRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM articles WHERE id = $1`
	res, err := conn(ctx, repo.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *ArticleRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1 AND ($2 = '' OR id::text <> $2))`
	var exists bool
	if err := conn(ctx, repo.db).QueryRowContext(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("SlugExists: %w", err)
	}
	return exists, nil
}

// ReplaceTags は記事のタグ集合を tagIDs で置き換える
func (repo *ArticleRepo) ReplaceTags(ctx context.Context, articleID string, tagIDs []string) error {
	db := conn(ctx, repo.db)
	if _, err := db.ExecContext(ctx, `DELETE FROM article_tags WHERE article_id = $1`, articleID); err != nil {
		return fmt.Errorf("ReplaceTags: delete: %w", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}

	const query = `
INSERT INTO article_tags (article_id, tag_id)
SELECT $1, unnest($2::uuid[])
ON CONFLICT DO NOTHING`
	if _, err := db.ExecContext(ctx, query, articleID, pq.Array(tagIDs)); err != nil {
		return fmt.Errorf("ReplaceTags: insert: %w", err)
	}
	return nil
}

// loadTags fills Tags for every article with a single query.
func loadTags(ctx context.Context, db dbtx, articles []*entity.Article) error {
	if len(articles) == 0 {
		return nil
	}
	ids := make([]string, 0, len(articles))
	byID := make(map[string]*entity.Article, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
		byID[a.ID] = a
	}

	const query = `
SELECT art.article_id, t.id, t.name, t.slug, t.description, t.color, t.created_at
FROM article_tags art
INNER JOIN tags t ON t.id = art.tag_id
WHERE art.article_id = ANY($1)
ORDER BY t.name`
	rows, err := db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("loadTags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			articleID string
			tag       entity.Tag
		)
		if err := rows.Scan(&articleID, &tag.ID, &tag.Name, &tag.Slug,
			&tag.Description, &tag.Color, &tag.CreatedAt); err != nil {
			return fmt.Errorf("loadTags: Scan: %w", err)
		}
		if a, ok := byID[articleID]; ok {
			a.Tags = append(a.Tags, tag)
		}
	}
	return rows.Err()
}

func articleWriteErr(err error) error {
	if uniqueConstraint(err) == "articles_slug_key" {
		return repository.ErrDuplicateSlug
	}
	return err
}

func jsonOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
