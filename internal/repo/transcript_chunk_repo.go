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

type TranscriptChunkRepo struct {
	db *sql.DB
}

func NewTranscriptChunkRepo(db *sql.DB) *TranscriptChunkRepo {
	return &TranscriptChunkRepo{db: db}
}

func (r *TranscriptChunkRepo) Insert(ctx context.Context, c *model.TranscriptChunk) (int64, error) {
	data := map[string]interface{}{
		"video_id":        c.VideoID,
		"content":         c.Content,
		"word_count":      c.WordCount,
		"chunk_type":      string(c.ChunkType),
		"question_number": c.QuestionNumber,
		"created_at":      c.CreatedAt,
	}
	sqlStr, args, err := builder.BuildInsert("video_transcript_chunks", []map[string]interface{}{data})
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

func (r *TranscriptChunkRepo) AttachEmbedding(ctx context.Context, id int64, vec []float32, embedModel string) error {
	update := map[string]interface{}{
		"embedding":       pgvector.NewVector(vec),
		"embedding_model": embedModel,
	}
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildUpdate("video_transcript_chunks", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *TranscriptChunkRepo) ListMissingEmbedding(ctx context.Context, limit int) ([]*model.TranscriptChunk, error) {
	const query = `
		SELECT c.id, c.video_id, c.content, v.subject_id, c.created_at
		FROM video_transcript_chunks c
		JOIN videos v ON c.video_id = v.id
		WHERE c.embedding IS NULL
		ORDER BY c.created_at ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []*model.TranscriptChunk
	for rows.Next() {
		var c model.TranscriptChunk
		if err := rows.Scan(&c.ID, &c.VideoID, &c.Content, &c.SubjectID, &c.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

func (r *TranscriptChunkRepo) ListEmbedded(ctx context.Context) ([]*model.TranscriptChunk, error) {
	const query = `
		SELECT c.id, c.video_id, c.embedding, c.embedding_model, c.chunk_type, c.created_at, v.subject_id
		FROM video_transcript_chunks c
		JOIN videos v ON c.video_id = v.id
		WHERE c.embedding IS NOT NULL
		ORDER BY c.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chunks []*model.TranscriptChunk
	for rows.Next() {
		var c model.TranscriptChunk
		var vec pgvector.Vector
		var chunkType string
		if err := rows.Scan(&c.ID, &c.VideoID, &vec, &c.EmbeddingModel, &chunkType, &c.CreatedAt, &c.SubjectID); err != nil {
			return nil, err
		}
		c.Embedding = vec.Slice()
		c.ChunkType = model.ChunkType(chunkType)
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

func (r *TranscriptChunkRepo) Get(ctx context.Context, id int64) (*model.TranscriptChunk, error) {
	const query = `
		SELECT c.id, c.video_id, c.content, c.chunk_type, c.question_number, c.created_at, v.subject_id
		FROM video_transcript_chunks c
		JOIN videos v ON c.video_id = v.id
		WHERE c.id = $1
	`
	var c model.TranscriptChunk
	var chunkType string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.VideoID, &c.Content, &chunkType, &c.QuestionNumber, &c.CreatedAt, &c.SubjectID)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.ChunkType = model.ChunkType(chunkType)
	return &c, nil
}

func (r *TranscriptChunkRepo) DeleteByVideo(ctx context.Context, videoID int64) (int64, error) {
	where := map[string]interface{}{"video_id": videoID}
	sqlStr, args, err := builder.BuildDelete("video_transcript_chunks", where)
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
