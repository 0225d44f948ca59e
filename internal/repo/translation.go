package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TranslationRepo reads translated UI messages.
type TranslationRepo interface {
	// Messages returns the translations for lang of the given source texts.
	// Texts without a translation are absent from the map. An empty sources
	// slice returns every translation for lang.
	Messages(ctx context.Context, lang string, sources []string) (map[string]string, error)
}

type pgTranslationRepo struct {
	db db
}

// NewTranslationRepo constructs a TranslationRepo backed by the provided db connection.
func NewTranslationRepo(db db) TranslationRepo {
	return &pgTranslationRepo{db: db}
}

func (r *pgTranslationRepo) Messages(ctx context.Context, lang string, sources []string) (map[string]string, error) {
	const q = `
		SELECT source_text, translated_text
		FROM translations
		WHERE lang = @lang
		  AND (cardinality(@sources::text[]) = 0 OR source_text = ANY(@sources::text[]))`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"lang": lang, "sources": nonNil(sources)})
	if err != nil {
		return nil, fmt.Errorf("repo.TranslationRepo.Messages: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var src, dst string
		if err := rows.Scan(&src, &dst); err != nil {
			return nil, fmt.Errorf("repo.TranslationRepo.Messages: scan: %w", err)
		}
		out[src] = dst
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TranslationRepo.Messages: rows: %w", err)
	}
	return out, nil
}
