// Package docfmt is the small filesystem/document layer the ECS core's
// bootstrap loaders sit on top of: walking a root directory for regular
// files and decoding each one as JSON or YAML into a plain
// map[string]any, so the rest of the core never has to care which format
// a given root was authored in.
package docfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// WalkFiles returns every regular file under root, including subfolders,
// in a stable (lexicographic) order. A root that does not exist yields an
// empty slice, not an error, since bootstrap roots are optional.
func WalkFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: walking %s: %v", ErrIoOrParse, root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Load reads path and decodes it into a document. Files named *.yaml or
// *.yml are decoded as YAML; everything else is decoded as JSON.
func Load(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrIoOrParse, path, err)
	}

	doc := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", ErrIoOrParse, path, err)
		}
	default:
		if err = json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", ErrIoOrParse, path, err)
		}
	}
	return doc, nil
}

// KV is one entry of an OrderedDoc.
type KV struct {
	Key   string
	Value any
}

// OrderedDoc is a JSON object that marshals its keys in insertion order
// instead of the sorted order encoding/json applies to plain maps. Used
// wherever a saved document's field order must match the order fields
// were declared or written, mirroring an ordered-JSON library in the
// teacher's ecosystem.
type OrderedDoc []KV

func (d OrderedDoc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteJSONAtomic marshals data as indented JSON and writes it to path via
// a "<path>.<uuid>.tmp" staging file followed by an atomic rename, so a
// crash mid-write never leaves a truncated or corrupt file at path.
func WriteJSONAtomic(path string, data any) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrIoOrParse, path, err)
	}

	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrIoOrParse, dir, err)
	}

	staging := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err = os.WriteFile(staging, encoded, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrIoOrParse, staging, err)
	}
	if err = os.Rename(staging, path); err != nil {
		_ = os.Remove(staging)
		return fmt.Errorf("%w: renaming %s to %s: %v", ErrIoOrParse, staging, path, err)
	}
	return nil
}
