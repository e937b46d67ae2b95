package localstate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/communityboard/board-system/internal/core/domain"
)

type cursorDoc struct {
	// identity id -> last completed step name
	Steps map[string]string `toml:"steps"`
}

// CursorFile is a ports.CursorStore backed by a TOML file.
type CursorFile struct {
	path string
	mu   sync.Mutex
}

func NewCursorFile(dir string) *CursorFile {
	return &CursorFile{path: filepath.Join(dir, cursorFileName)}
}

func (f *CursorFile) Load(_ context.Context, identityID string) (domain.CascadeStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return domain.StepNone, err
	}
	name, ok := doc.Steps[identityID]
	if !ok {
		return domain.StepNone, nil
	}
	step, ok := domain.ParseCascadeStep(name)
	if !ok {
		return domain.StepNone, fmt.Errorf("cursor file: unknown step %q", name)
	}
	return step, nil
}

func (f *CursorFile) Save(_ context.Context, identityID string, step domain.CascadeStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.Steps[identityID] = step.String()
	return writeTOML(f.path, doc)
}

func (f *CursorFile) Clear(_ context.Context, identityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Steps[identityID]; !ok {
		return nil
	}
	delete(doc.Steps, identityID)
	return writeTOML(f.path, doc)
}

func (f *CursorFile) read() (cursorDoc, error) {
	doc := cursorDoc{}
	if _, err := toml.DecodeFile(f.path, &doc); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return doc, fmt.Errorf("read cursor file: %w", err)
	}
	if doc.Steps == nil {
		doc.Steps = make(map[string]string)
	}
	return doc, nil
}
