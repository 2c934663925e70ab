package workspace

import "context"

// Artifact is one stored audio payload inside an Area.
type Artifact struct {
	ID   string
	Path string
	Size int64
}

// Area is a session-exclusive scratch area for in-flight audio. Release is
// idempotent; after it, Put fails.
type Area interface {
	Put(ctx context.Context, id, ext string, data []byte) (Artifact, error)
	// Remove deletes the artifact and any derived files sharing its ID.
	Remove(a Artifact) error
	Release() error
}

type Provider interface {
	Allocate(sessionID string) (Area, error)
}
