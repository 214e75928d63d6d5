package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/evidence-search/internal/core/domain"
)

// rankScale lifts ts_rank_cd output (typically well below 1) into the
// BM25-like band the lexical threshold defaults assume.
const rankScale = 32.0

// LexicalSearcher serves the keyword side of hybrid retrieval from a
// Postgres full-text index over chunk content. It returns ids only; chunk
// payloads are resolved from the semantic result set.
type LexicalSearcher struct {
	db *sql.DB
}

func NewLexicalSearcher(db *sql.DB) *LexicalSearcher {
	return &LexicalSearcher{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *LexicalSearcher) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent service startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082301)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS chunk_index (
	chunk_id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	library_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	section TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	tsv TSVECTOR GENERATED ALWAYS AS (
		to_tsvector('simple', title || ' ' || section || ' ' || content)
	) STORED
);

CREATE INDEX IF NOT EXISTS idx_chunk_index_tsv ON chunk_index USING GIN(tsv);
CREATE INDEX IF NOT EXISTS idx_chunk_index_library ON chunk_index(library_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *LexicalSearcher) SearchLexical(
	ctx context.Context,
	query string,
	k int,
	scope domain.SearchScope,
	matchAll bool,
) ([]domain.LexicalHit, error) {
	tsQuery := buildTSQuery(query, matchAll)
	if tsQuery == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT chunk_id, ts_rank_cd(tsv, query) * $4 AS score
FROM chunk_index, to_tsquery('simple', $1) AS query
WHERE tsv @@ query AND library_id = ANY($2)
ORDER BY score DESC, chunk_id
LIMIT $3
`, tsQuery, scope.LibraryIDs, k, rankScale)
	if err != nil {
		return nil, fmt.Errorf("lexical search query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.LexicalHit, 0, k)
	for rows.Next() {
		var hit domain.LexicalHit
		if err := rows.Scan(&hit.ChunkID, &hit.Score); err != nil {
			return nil, fmt.Errorf("scan lexical hit: %w", err)
		}
		out = append(out, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lexical hits: %w", err)
	}
	return out, nil
}

// buildTSQuery joins sanitized query tokens with & (match all) or |. An
// empty result means there is nothing to search for.
func buildTSQuery(query string, matchAll bool) string {
	tokens := tsQueryTokens(query)
	if len(tokens) == 0 {
		return ""
	}
	operator := " | "
	if matchAll {
		operator = " & "
	}
	return strings.Join(tokens, operator)
}

func tsQueryTokens(s string) []string {
	out := make([]string, 0, 8)
	seen := make(map[string]struct{}, 8)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		token := b.String()
		b.Reset()
		if _, dup := seen[token]; dup {
			return
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return out
}
