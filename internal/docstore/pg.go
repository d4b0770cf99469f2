package docstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PG implements Store on a single PostgreSQL `documents` table with a
// JSONB payload per document. A database trigger emits a NOTIFY on the
// NotifyChannel for every insert/update, which is how other instances
// observing the same store learn about our writes (and we about theirs).
type PG struct {
	pool *pgxpool.Pool
}

// NotifyChannel is the LISTEN/NOTIFY channel the documents trigger fires
// on; the payload is the changed collection name.
const NotifyChannel = "docstore_changes"

func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

func (s *PG) AddDocument(ctx context.Context, collection string, data []byte) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO documents (collection, data) VALUES ($1, $2) RETURNING id`,
		collection, data,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}
	return id, nil
}

// UpdateDocument merges partial into the stored JSONB. Concurrent writers
// touching other fields of the same document are not clobbered.
func (s *PG) UpdateDocument(ctx context.Context, collection, id string, partial []byte) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET data = data || $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND id = $2::uuid`,
		collection, id, partial,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoDocument
	}
	return nil
}

func (s *PG) GetDocuments(ctx context.Context, collection string, q Query) ([]Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)
	args := []any{collection}

	for _, f := range q.Filters {
		args = append(args, f.Equals)
		fmt.Fprintf(&sb, ` AND data->>%s = $%d`, quoteLiteral(f.Field), len(args))
	}

	if q.OrderBy != nil {
		dir := "ASC"
		if q.OrderBy.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, ` ORDER BY data->>%s %s`, quoteLiteral(q.OrderBy.Field), dir)
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	return docs, nil
}

// quoteLiteral renders a field name as a SQL string literal. Field names
// come from code constants, never from user input.
func quoteLiteral(field string) string {
	return "'" + strings.ReplaceAll(field, "'", "''") + "'"
}
