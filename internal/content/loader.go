// Package content loads the static files a study plan is built from:
// course content, planning guidelines and calendar data.
package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// Well-known files in the data directory.
const (
	FileCourseContent = "course_content.json"
	FileGuidelines    = "guidelines.txt"
	FileCalendar      = "calendar.json"
)

var (
	ErrNotFound        = errors.New("content file not found")
	ErrMalformed       = errors.New("content file is malformed")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrEmpty           = errors.New("content file is empty")
)

// Kind selects how a file is decoded.
type Kind string

const (
	KindAuto Kind = ""
	KindText Kind = "txt"
	KindJSON Kind = "json"
)

// Loader reads content files from a filesystem rooted at the data dir.
type Loader struct {
	fsys fs.FS
}

// NewLoader returns a Loader over fsys.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// NewDirLoader returns a Loader over the directory dir.
func NewDirLoader(dir string) *Loader {
	return NewLoader(os.DirFS(dir))
}

// Load reads name and decodes it according to its extension: ".txt"
// yields a string, ".json" the decoded value.
func (l *Loader) Load(name string) (any, error) {
	return l.LoadAs(name, KindAuto)
}

// LoadAs reads name and decodes it as kind. KindAuto uses the extension.
func (l *Loader) LoadAs(name string, kind Kind) (any, error) {
	if kind == KindAuto {
		kind = Kind(strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")))
	}
	if kind != KindText && kind != KindJSON {
		return nil, fmt.Errorf("%s: %w: %q", name, ErrUnsupportedType, kind)
	}

	raw, err := l.read(name)
	if err != nil {
		return nil, err
	}

	if kind == KindText {
		return string(raw), nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrMalformed, err)
	}
	if isEmptyValue(v) {
		return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
	}
	return v, nil
}

// Text loads name as text.
func (l *Loader) Text(name string) (string, error) {
	v, err := l.LoadAs(name, KindText)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// DecodeJSON loads name and decodes it into dst.
func (l *Loader) DecodeJSON(name string, dst any) error {
	raw, err := l.read(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w: %v", name, ErrMalformed, err)
	}
	return nil
}

func (l *Loader) read(name string) ([]byte, error) {
	raw, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
	}
	return raw, nil
}

// isEmptyValue treats null and empty containers as no content.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}
