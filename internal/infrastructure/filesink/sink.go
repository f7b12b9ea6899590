package filesink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"
)

// Sink mirrors cycle artifacts to JSON files under one directory. Writes go
// through a temp file and rename, so a crashed writer never leaves a torn
// artifact behind.
type Sink struct {
	mu  sync.Mutex
	dir string
}

func New(dir string) (*Sink, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("sink directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sink directory %s: %w", dir, err)
	}
	return &Sink{dir: dir}, nil
}

func (s *Sink) Write(name string, payload any) error {
	name = sanitizeName(name)
	if name == "" {
		return fmt.Errorf("artifact name is required")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	encoded, err := sonic.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", name, err)
	}
	if _, err := buf.Write(encoded); err != nil {
		return fmt.Errorf("buffer artifact %s: %w", name, err)
	}
	if len(encoded) == 0 || encoded[len(encoded)-1] != '\n' {
		_ = buf.WriteByte('\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := filepath.Join(s.dir, name+".json")
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("publish artifact %s: %w", name, err)
	}
	return nil
}

func (s *Sink) Dir() string {
	return s.dir
}

// sanitizeName keeps artifact names path-safe. Anything outside a small safe
// alphabet becomes an underscore.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	var out strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			out.WriteRune(r)
		default:
			out.WriteRune('_')
		}
	}
	return strings.Trim(out.String(), "._")
}
