package database

import (
	"database/sql"
	"fmt"
	"time"
)

// ArticleRepo reads article identity and writes the fact-check cache fields
type ArticleRepo struct {
	db *DB
}

func NewArticleRepo(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

const articleColumns = `
	id, source_id, url, COALESCE(title, ''), published_at,
	fact_check_score, fact_check_verdict, fact_checked_at, created_at`

func (r *ArticleRepo) GetByID(id string) (*Article, error) {
	var article Article
	err := r.db.QueryRow(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE id = $1
	`, id).Scan(
		&article.ID, &article.SourceID, &article.URL, &article.Title, &article.PublishedAt,
		&article.FactCheckScore, &article.FactCheckVerdict, &article.FactCheckedAt, &article.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return &article, nil
}

// UpdateFactCheckCache sets the three denormalized cache fields in a single
// statement, keeping them atomically all-set.
func (r *ArticleRepo) UpdateFactCheckCache(id string, score int, verdict string, checkedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET fact_check_score = $2, fact_check_verdict = $3, fact_checked_at = $4
		WHERE id = $1
	`, id, score, verdict, checkedAt)

	if err != nil {
		return fmt.Errorf("failed to update article fact check cache: %w", err)
	}

	return nil
}

func (r *ArticleRepo) ListUnchecked(limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles a
		WHERE NOT EXISTS (
			SELECT 1 FROM article_fact_checks fc WHERE fc.article_id = a.id
		)
		ORDER BY a.created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unchecked articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var article Article
		err := rows.Scan(
			&article.ID, &article.SourceID, &article.URL, &article.Title, &article.PublishedAt,
			&article.FactCheckScore, &article.FactCheckVerdict, &article.FactCheckedAt, &article.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *ArticleRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}
