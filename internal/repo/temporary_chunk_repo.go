package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/ndgo/studybot/internal/model"
	"github.com/ndgo/studybot/internal/pkg/dbutil"
	appErr "github.com/ndgo/studybot/internal/pkg/errors"
)

type TemporaryChunkRepo struct {
	db *sql.DB
}

func NewTemporaryChunkRepo(db *sql.DB) *TemporaryChunkRepo {
	return &TemporaryChunkRepo{db: db}
}

func (r *TemporaryChunkRepo) Insert(ctx context.Context, c *model.TemporaryChunk) (int64, error) {
	data := map[string]interface{}{
		"document_id":     c.DocumentID,
		"user_id":         c.UserID,
		"session_id":      c.SessionID,
		"content":         c.Content,
		"word_count":      c.WordCount,
		"chunk_type":      string(c.ChunkType),
		"question_number": c.QuestionNumber,
		"created_at":      c.CreatedAt,
	}
	sqlStr, args, err := builder.BuildInsert("temp_document_chunks", []map[string]interface{}{data})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var id int64
	if err := r.db.QueryRowContext(ctx, sqlStr+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *TemporaryChunkRepo) AttachEmbedding(ctx context.Context, id int64, vec []float32, embedModel string) error {
	update := map[string]interface{}{
		"embedding":       pgvector.NewVector(vec),
		"embedding_model": embedModel,
	}
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildUpdate("temp_document_chunks", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *TemporaryChunkRepo) ListMissingEmbedding(ctx context.Context, limit int) ([]*model.TemporaryChunk, error) {
	const query = `
		SELECT c.id, c.document_id, c.user_id, c.session_id, c.content, d.subject_id, c.created_at
		FROM temp_document_chunks c
		JOIN temp_documents d ON c.document_id = d.id
		WHERE c.embedding IS NULL
		ORDER BY c.created_at ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []*model.TemporaryChunk
	for rows.Next() {
		var c model.TemporaryChunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.UserID, &c.SessionID, &c.Content, &c.SubjectID, &c.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

func (r *TemporaryChunkRepo) ListEmbedded(ctx context.Context) ([]*model.TemporaryChunk, error) {
	const query = `
		SELECT c.id, c.document_id, c.user_id, c.session_id, c.embedding, c.embedding_model, c.chunk_type, c.created_at, d.subject_id
		FROM temp_document_chunks c
		JOIN temp_documents d ON c.document_id = d.id
		WHERE c.embedding IS NOT NULL
		ORDER BY c.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []*model.TemporaryChunk
	for rows.Next() {
		var c model.TemporaryChunk
		var vec pgvector.Vector
		var chunkType string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.UserID, &c.SessionID, &vec, &c.EmbeddingModel, &chunkType, &c.CreatedAt, &c.SubjectID); err != nil {
			return nil, err
		}
		c.Embedding = vec.Slice()
		c.ChunkType = model.ChunkType(chunkType)
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

func (r *TemporaryChunkRepo) Get(ctx context.Context, id int64) (*model.TemporaryChunk, error) {
	const query = `
		SELECT c.id, c.document_id, c.user_id, c.session_id, c.content, c.chunk_type, c.question_number, c.created_at, d.subject_id
		FROM temp_document_chunks c
		JOIN temp_documents d ON c.document_id = d.id
		WHERE c.id = $1
	`
	var c model.TemporaryChunk
	var chunkType string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.DocumentID, &c.UserID, &c.SessionID, &c.Content, &chunkType, &c.QuestionNumber, &c.CreatedAt, &c.SubjectID)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.ChunkType = model.ChunkType(chunkType)
	return &c, nil
}

func (r *TemporaryChunkRepo) DeleteByDocument(ctx context.Context, documentID int64) (int64, error) {
	where := map[string]interface{}{"document_id": documentID}
	sqlStr, args, err := builder.BuildDelete("temp_document_chunks", where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteAll drops every temporary chunk. Used by crash recovery when the
// previous shutdown was unclean.
func (r *TemporaryChunkRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM temp_document_chunks`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
