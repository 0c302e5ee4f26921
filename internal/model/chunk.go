package model

import "time"

// Origin identifies which of the three chunk sources a record came from.
type Origin string

const (
	OriginPermanent  Origin = "permanent"
	OriginTemporary  Origin = "temporary"
	OriginTranscript Origin = "transcript"
)

type ChunkType string

const (
	ChunkTypeTheory   ChunkType = "theory"
	ChunkTypeExercise ChunkType = "exercise"
)

// Chunk is the read-side view shared by the three origins. Origin-specific
// fields (owner, session) are reached by type switch on the concrete type.
type Chunk interface {
	ChunkID() int64
	ChunkOrigin() Origin
	Body() string
	Vector() []float32
	Subject() string
	CreatedTime() time.Time
}

// PermanentChunk is a segment of a curriculum document.
type PermanentChunk struct {
	ID             int64
	DocumentID     int64
	Content        string
	WordCount      int
	Embedding      []float32
	EmbeddingModel string
	ChunkType      ChunkType
	QuestionNumber int
	SubjectID      string
	CreatedAt      time.Time
}

func (c *PermanentChunk) ChunkID() int64         { return c.ID }
func (c *PermanentChunk) ChunkOrigin() Origin    { return OriginPermanent }
func (c *PermanentChunk) Body() string           { return c.Content }
func (c *PermanentChunk) Vector() []float32      { return c.Embedding }
func (c *PermanentChunk) Subject() string        { return c.SubjectID }
func (c *PermanentChunk) CreatedTime() time.Time { return c.CreatedAt }

// TemporaryChunk is a segment of an ad-hoc student upload. It is visible
// only to its uploader and expires with its parent document.
type TemporaryChunk struct {
	ID             int64
	DocumentID     int64
	UserID         int64
	SessionID      int64 // 0 when the upload is not attached to a session yet
	Content        string
	WordCount      int
	Embedding      []float32
	EmbeddingModel string
	ChunkType      ChunkType
	QuestionNumber int
	SubjectID      string
	CreatedAt      time.Time
}

func (c *TemporaryChunk) ChunkID() int64         { return c.ID }
func (c *TemporaryChunk) ChunkOrigin() Origin    { return OriginTemporary }
func (c *TemporaryChunk) Body() string           { return c.Content }
func (c *TemporaryChunk) Vector() []float32      { return c.Embedding }
func (c *TemporaryChunk) Subject() string        { return c.SubjectID }
func (c *TemporaryChunk) CreatedTime() time.Time { return c.CreatedAt }

// TranscriptChunk is a segment of a lecture video transcript.
type TranscriptChunk struct {
	ID             int64
	VideoID        int64
	Content        string
	WordCount      int
	Embedding      []float32
	EmbeddingModel string
	ChunkType      ChunkType
	QuestionNumber int
	SubjectID      string
	CreatedAt      time.Time
}

func (c *TranscriptChunk) ChunkID() int64         { return c.ID }
func (c *TranscriptChunk) ChunkOrigin() Origin    { return OriginTranscript }
func (c *TranscriptChunk) Body() string           { return c.Content }
func (c *TranscriptChunk) Vector() []float32      { return c.Embedding }
func (c *TranscriptChunk) Subject() string        { return c.SubjectID }
func (c *TranscriptChunk) CreatedTime() time.Time { return c.CreatedAt }
