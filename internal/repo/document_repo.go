package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/ndgo/studybot/internal/model"
	"github.com/ndgo/studybot/internal/pkg/dbutil"
	appErr "github.com/ndgo/studybot/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Insert(ctx context.Context, doc *model.Document) (int64, error) {
	data := map[string]interface{}{
		"title":      doc.Title,
		"subject_id": doc.SubjectID,
		"created_at": doc.CreatedAt,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
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

func (r *DocumentRepo) Delete(ctx context.Context, id int64) error {
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildDelete("documents", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

type VideoRepo struct {
	db *sql.DB
}

func NewVideoRepo(db *sql.DB) *VideoRepo {
	return &VideoRepo{db: db}
}

func (r *VideoRepo) Insert(ctx context.Context, video *model.Video) (int64, error) {
	data := map[string]interface{}{
		"title":      video.Title,
		"subject_id": video.SubjectID,
		"created_at": video.CreatedAt,
	}
	sqlStr, args, err := builder.BuildInsert("videos", []map[string]interface{}{data})
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

func (r *VideoRepo) Get(ctx context.Context, id int64) (*model.Video, error) {
	const query = `SELECT id, title, subject_id, created_at FROM videos WHERE id = $1`
	var v model.Video
	err := r.db.QueryRowContext(ctx, query, id).Scan(&v.ID, &v.Title, &v.SubjectID, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type TempDocumentRepo struct {
	db *sql.DB
}

func NewTempDocumentRepo(db *sql.DB) *TempDocumentRepo {
	return &TempDocumentRepo{db: db}
}

func (r *TempDocumentRepo) Insert(ctx context.Context, doc *model.TempDocument) (int64, error) {
	data := map[string]interface{}{
		"user_id":     doc.UserID,
		"session_id":  doc.SessionID,
		"title":       doc.Title,
		"subject_id":  doc.SubjectID,
		"file_key":    doc.FileKey,
		"uploaded_at": doc.UploadedAt,
	}
	sqlStr, args, err := builder.BuildInsert("temp_documents", []map[string]interface{}{data})
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

// ListExpired returns temporary documents uploaded before the cutoff.
func (r *TempDocumentRepo) ListExpired(ctx context.Context, cutoff time.Time) ([]*model.TempDocument, error) {
	const query = `
		SELECT id, user_id, session_id, title, subject_id, file_key, uploaded_at
		FROM temp_documents
		WHERE uploaded_at < $1
		ORDER BY uploaded_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTempDocuments(rows)
}

// ListAll returns every temporary document. Used by crash recovery.
func (r *TempDocumentRepo) ListAll(ctx context.Context) ([]*model.TempDocument, error) {
	const query = `
		SELECT id, user_id, session_id, title, subject_id, file_key, uploaded_at
		FROM temp_documents
		ORDER BY uploaded_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTempDocuments(rows)
}

func (r *TempDocumentRepo) Delete(ctx context.Context, id int64) error {
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildDelete("temp_documents", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func scanTempDocuments(rows *sql.Rows) ([]*model.TempDocument, error) {
	var docs []*model.TempDocument
	for rows.Next() {
		var d model.TempDocument
		if err := rows.Scan(&d.ID, &d.UserID, &d.SessionID, &d.Title, &d.SubjectID, &d.FileKey, &d.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}
