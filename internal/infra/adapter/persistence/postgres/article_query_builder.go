package postgres

import (
	"fmt"
	"strings"

	"knowledgebase/internal/repository"

	"github.com/lib/pq"
)

// ArticleQueryBuilder builds the WHERE clause shared by the article list and
// count queries. The articles table is expected under the alias "a".
type ArticleQueryBuilder struct{}

// NewArticleQueryBuilder creates a new query builder instance.
func NewArticleQueryBuilder() *ArticleQueryBuilder {
	return &ArticleQueryBuilder{}
}

// BuildWhereClause returns the WHERE clause and its arguments for filters.
// Placeholders start at $1. An empty string is returned when no filter is set.
func (qb *ArticleQueryBuilder) BuildWhereClause(filters repository.ArticleFilters) (clause string, args []any) {
	var conditions []string
	next := func(v any) int {
		args = append(args, v)
		return len(args)
	}

	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", next(string(*filters.Status))))
	}
	if filters.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("a.user_id = $%d", next(filters.UserID)))
	}
	if len(filters.TagIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM article_tags ft WHERE ft.article_id = a.id AND ft.tag_id = ANY($%d))",
			next(pq.Array(filters.TagIDs))))
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		n := next(escapeLike(q))
		conditions = append(conditions, fmt.Sprintf(
			"(a.title ILIKE $%[1]d OR a.excerpt ILIKE $%[1]d OR EXISTS ("+
				"SELECT 1 FROM article_tags st JOIN tags t ON t.id = st.tag_id "+
				"WHERE st.article_id = a.id AND t.name ILIKE $%[1]d))", n))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
