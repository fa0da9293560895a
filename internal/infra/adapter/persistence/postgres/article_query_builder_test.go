package postgres_test

import (
	"testing"

	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/infra/adapter/persistence/postgres"
	"knowledgebase/internal/repository"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

/* ──────────────────────────── BuildWhereClause ──────────────────────────── */

func TestArticleQueryBuilder_BuildWhereClause_NoConditions(t *testing.T) {
	builder := postgres.NewArticleQueryBuilder()
	clause, args := builder.BuildWhereClause(repository.ArticleFilters{})

	assert.Empty(t, clause)
	assert.Empty(t, args)
}

func TestArticleQueryBuilder_BuildWhereClause_Query(t *testing.T) {
	builder := postgres.NewArticleQueryBuilder()
	clause, args := builder.BuildWhereClause(repository.ArticleFilters{Query: "  Go  "})

	assert.Equal(t,
		"WHERE (a.title ILIKE $1 OR a.excerpt ILIKE $1 OR EXISTS (SELECT 1 FROM article_tags st JOIN tags t ON t.id = st.tag_id WHERE st.article_id = a.id AND t.name ILIKE $1))",
		clause)
	assert.Equal(t, []any{"%Go%"}, args)
}

func TestArticleQueryBuilder_BuildWhereClause_EscapesWildcards(t *testing.T) {
	builder := postgres.NewArticleQueryBuilder()
	_, args := builder.BuildWhereClause(repository.ArticleFilters{Query: `100%_done\`})

	assert.Equal(t, []any{`%100\%\_done\\%`}, args)
}

func TestArticleQueryBuilder_BuildWhereClause_AllFilters(t *testing.T) {
	status := entity.StatusPublished
	builder := postgres.NewArticleQueryBuilder()
	clause, args := builder.BuildWhereClause(repository.ArticleFilters{
		Status: &status,
		UserID: "u1",
		TagIDs: []string{"t1", "t2"},
		Query:  "go",
	})

	assert.Contains(t, clause, "a.status = $1 AND a.user_id = $2 AND EXISTS (SELECT 1 FROM article_tags ft WHERE ft.article_id = a.id AND ft.tag_id = ANY($3)) AND (a.title ILIKE $4")
	if assert.Len(t, args, 4) {
		assert.Equal(t, "PUBLISHED", args[0])
		assert.Equal(t, "u1", args[1])
		assert.Equal(t, pq.Array([]string{"t1", "t2"}), args[2])
		assert.Equal(t, "%go%", args[3])
	}
}
