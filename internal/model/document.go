package model

import "time"

// Document is a permanent curriculum document.
type Document struct {
	ID        int64
	Title     string
	SubjectID string
	CreatedAt time.Time
}

// TempDocument is a session-scoped student upload. It is hard-deleted by the
// expiry sweep once UploadedAt is older than the retention window, together
// with its chunks and its stored file.
type TempDocument struct {
	ID         int64
	UserID     int64
	SessionID  int64
	Title      string
	SubjectID  string
	FileKey    string // empty when only extracted text was ingested
	UploadedAt time.Time
}

// Video is the parent record of transcript chunks.
type Video struct {
	ID        int64
	Title     string
	SubjectID string
	CreatedAt time.Time
}
