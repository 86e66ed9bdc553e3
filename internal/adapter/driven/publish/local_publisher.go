// Package publish copies gated artifacts to the directory the presentation
// collaborators read from.
package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abigailhaddad/apportionment/internal/domain/repository"
)

// LocalPublisher copia os artefatos para um diretório local.
type LocalPublisher struct {
	dir string
}

// NewLocalPublisher creates a publisher writing into dir.
func NewLocalPublisher(dir string) repository.PublishRepository {
	return &LocalPublisher{dir: dir}
}

func (p *LocalPublisher) Name() string {
	return p.dir
}

// Publish replaces each artifact in the target directory atomically.
func (p *LocalPublisher) Publish(ctx context.Context, fiscalYear int, artifacts []string) ([]string, error) {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating publish directory '%s': %w", p.dir, err)
	}
	var published []string
	for _, src := range artifacts {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		dst := filepath.Join(p.dir, filepath.Base(src))
		if err := copyAtomic(src, dst); err != nil {
			return published, fmt.Errorf("FY%d: %w", fiscalYear, err)
		}
		published = append(published, dst)
	}
	return published, nil
}

func copyAtomic(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("error copying %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
