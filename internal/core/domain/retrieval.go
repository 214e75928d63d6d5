package domain

// Metadata keys recognized on a chunk. Anything else is carried opaquely.
const (
	MetaTitle    = "title"
	MetaSection  = "section"
	MetaFilename = "filename"
)

// Chunk is the atomic retrievable unit. ID is stable across both retrieval
// sources for the duration of one search call.
type Chunk struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func (c Chunk) Title() string    { return c.Metadata[MetaTitle] }
func (c Chunk) Section() string  { return c.Metadata[MetaSection] }
func (c Chunk) Filename() string { return c.Metadata[MetaFilename] }

// AnnHit is a semantic search result. Cosine is clipped to [0,1] at the
// adapter boundary.
type AnnHit struct {
	Chunk  Chunk
	Cosine float64
}

// LexicalHit is a keyword search result. It carries only the chunk id; the
// fusion step resolves the full chunk from the semantic result set.
type LexicalHit struct {
	ChunkID string
	Score   float64
}

// SearchScope is an opaque whitelist of library ids forwarded verbatim to
// both retrieval adapters. The core never inspects it beyond emptiness.
type SearchScope struct {
	LibraryIDs []string `json:"library_ids"`
}

func (s SearchScope) IsEmpty() bool { return len(s.LibraryIDs) == 0 }

// ScoredChunk is one entry of the final ranked result. Score is the fused
// (post-bonus) score, Cosine the semantic similarity of the emitted chunk.
type ScoredChunk struct {
	Chunk  Chunk   `json:"chunk"`
	Score  float64 `json:"score"`
	Cosine float64 `json:"cosine"`
}
