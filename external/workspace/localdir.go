package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/foxseedlab/speakscore/internal/workspace"
)

const (
	areaDirPrefix = "session_"
	areaDirPerm   = 0o700
	artifactPerm  = 0o600
)

var errAreaReleased = errors.New("working area already released")

// LocalDirProvider hands out one directory per session under root.
type LocalDirProvider struct {
	root string
}

func NewLocalDirProvider(root string) (*LocalDirProvider, error) {
	if err := os.MkdirAll(root, areaDirPerm); err != nil {
		return nil, fmt.Errorf("create work dir %s: %w", root, err)
	}
	return &LocalDirProvider{root: root}, nil
}

func (p *LocalDirProvider) Allocate(sessionID string) (workspace.Area, error) {
	if !isSafeName(sessionID) {
		return nil, fmt.Errorf("invalid session id %q", sessionID)
	}
	dir := filepath.Join(p.root, areaDirPrefix+sessionID)
	if err := os.Mkdir(dir, areaDirPerm); err != nil {
		return nil, fmt.Errorf("create working area: %w", err)
	}
	return &localArea{dir: dir}, nil
}

type localArea struct {
	dir string

	mu       sync.Mutex
	released bool
}

func (a *localArea) Put(_ context.Context, id, ext string, data []byte) (workspace.Artifact, error) {
	if !isSafeName(id) || strings.ContainsAny(ext, `/\`) {
		return workspace.Artifact{}, fmt.Errorf("invalid artifact name %q%q", id, ext)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return workspace.Artifact{}, errAreaReleased
	}
	path := filepath.Join(a.dir, id+ext)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, artifactPerm)
	if err != nil {
		return workspace.Artifact{}, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return workspace.Artifact{}, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return workspace.Artifact{}, err
	}
	return workspace.Artifact{ID: id, Path: path, Size: int64(len(data))}, nil
}

// Remove deletes the artifact and every file named "<id>.*" next to it, which
// covers transcoder outputs written beside the upload.
func (a *localArea) Remove(artifact workspace.Artifact) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil
	}
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		if e.Name() != artifact.ID && !strings.HasPrefix(e.Name(), artifact.ID+".") {
			continue
		}
		if err := os.Remove(filepath.Join(a.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *localArea) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil
	}
	a.released = true
	return os.RemoveAll(a.dir)
}

func isSafeName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
