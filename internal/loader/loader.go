// Package loader classifies watcher events by project-relative path and
// reads their content. It has no direct analog in the teacher (whose
// ProjectRepository reads a fixed C4 directory shape); it is new code
// grounded on the teacher's general "read file, wrap IO errors" idiom
// (entities.ValidationError / adapters filesystem read helpers), applied
// to the content/templates/assets/config split in SPEC_FULL.md §4.2.
package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/norgolith/norgolith/internal/errs"
	"github.com/norgolith/norgolith/internal/watcher"
)

// Kind classifies a watcher event by the directory/extension rules of
// SPEC_FULL.md §4.2.
type Kind int

const (
	KindContent Kind = iota
	KindTemplate
	KindAsset
	KindConfig
	KindIgnored
)

func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindTemplate:
		return "template"
	case KindAsset:
		return "asset"
	case KindConfig:
		return "config"
	default:
		return "ignored"
	}
}

// Event is a classified, loaded change.
type Event struct {
	Path    string // root-relative, slash-separated
	Kind    Kind
	Action  watcher.Kind
	Content []byte // nil for delete actions
	Hash    string // hex sha256 of Content; empty for delete actions
}

// Classify determines the Kind of a root-relative path per §4.2's
// prefix/extension table.
func Classify(path string) Kind {
	path = filepath.ToSlash(path)

	switch {
	case path == "norgolith.toml":
		return KindConfig
	case strings.HasPrefix(path, "templates/"), strings.HasPrefix(path, "theme/templates/"):
		return KindTemplate
	case strings.HasPrefix(path, "content/"):
		if strings.HasSuffix(path, ".norg") {
			return KindContent
		}
		return KindAsset
	case strings.HasPrefix(path, "assets/"), strings.HasPrefix(path, "theme/assets/"):
		return KindAsset
	default:
		return KindIgnored
	}
}

// Load classifies and reads a single watcher event rooted at root. A
// modify event for a file that has since disappeared is treated as a
// delete, per §4.2.
func Load(root string, we watcher.Event) (Event, error) {
	kind := Classify(we.Path)
	ev := Event{Path: we.Path, Kind: kind, Action: we.Kind}

	if kind == KindIgnored {
		return ev, nil
	}

	action := we.Kind
	if action == watcher.KindDelete {
		return ev, nil
	}

	full := filepath.Join(root, filepath.FromSlash(we.Path))
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			ev.Action = watcher.KindDelete
			return ev, nil
		}
		return ev, &errs.IOError{Path: we.Path, Err: err}
	}

	sum := sha256.Sum256(data)
	ev.Content = data
	ev.Hash = hex.EncodeToString(sum[:])
	return ev, nil
}

// LoadBatch loads every event in a watcher.Batch, skipping KindIgnored
// entries. Per-file IO errors are collected but do not abort the batch;
// the caller decides how to log/propagate them (SPEC_FULL.md §7:
// IOError never aborts the rest of a build).
func LoadBatch(root string, batch watcher.Batch) ([]Event, []error) {
	events := make([]Event, 0, len(batch.Events))
	var errsOut []error

	for _, we := range batch.Events {
		ev, err := Load(root, we)
		if err != nil {
			errsOut = append(errsOut, err)
			continue
		}
		if ev.Kind == KindIgnored {
			continue
		}
		events = append(events, ev)
	}

	return events, errsOut
}
