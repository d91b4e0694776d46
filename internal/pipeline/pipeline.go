// Package pipeline wires the watch, build, and server tasks described in
// SPEC_FULL.md §5 into the two CLI entry points (`lith build`, `lith
// serve`). It is grounded on the teacher's cmd.WatchCommand/ServeCommand
// pair (debounce timer, signal-driven shutdown, "initial build then loop")
// generalized from a single-shot D2/HTML pass to the full
// watcher→loader→convert→site→render chain, with the build task as sole
// mutator of internal/site and an atomic.Pointer[site.Snapshot] as the
// only state shared with the server task.
package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/norgolith/norgolith/internal/config"
	"github.com/norgolith/norgolith/internal/convert"
	"github.com/norgolith/norgolith/internal/errs"
	"github.com/norgolith/norgolith/internal/highlight"
	"github.com/norgolith/norgolith/internal/loader"
	"github.com/norgolith/norgolith/internal/log"
	"github.com/norgolith/norgolith/internal/render"
	"github.com/norgolith/norgolith/internal/site"
	"github.com/norgolith/norgolith/internal/watcher"
)

// stack bundles the state a single project session needs: the mutable
// site model, the template engine, and the config it was built from.
type stack struct {
	root   string
	cfg    *config.Config
	model  *site.Model
	engine *render.Engine
}

// newStack loads norgolith.toml and constructs an empty model and
// template engine rooted at root. Callers still need to scan and apply
// an initial batch before the stack reflects any content.
func newStack(root string) (*stack, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	return &stack{
		root:   root,
		cfg:    cfg,
		model:  site.New(cfg),
		engine: newEngine(root),
	}, nil
}

func newEngine(root string) *render.Engine {
	return render.NewEngine(
		filepath.Join(root, "templates"),
		filepath.Join(root, "theme", "templates"),
	)
}

// scanTree walks content/, templates/, theme/, and assets/ under root and
// returns a synthetic watcher.Batch of create events covering every file
// present, plus norgolith.toml itself. It is how both `lith build` and
// the dev server's initial pass populate the site model before any real
// filesystem event has occurred.
func scanTree(root string) (watcher.Batch, error) {
	var batch watcher.Batch

	dirs := []string{"content", "templates", "theme", "assets"}
	for _, dir := range dirs {
		base := filepath.Join(root, dir)
		if _, err := os.Stat(base); err != nil {
			continue
		}
		err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, rerr := filepath.Rel(root, path)
			if rerr != nil {
				return rerr
			}
			batch.Events = append(batch.Events, watcher.Event{
				Path: filepath.ToSlash(rel),
				Kind: watcher.KindCreate,
			})
			return nil
		})
		if err != nil {
			return watcher.Batch{}, &errs.IOError{Path: base, Err: err}
		}
	}

	if _, err := os.Stat(filepath.Join(root, config.FileName)); err == nil {
		batch.Events = append(batch.Events, watcher.Event{
			Path: config.FileName,
			Kind: watcher.KindCreate,
		})
	}

	return batch, nil
}

// orderBatch sorts a batch's events so a rebuild is deterministic:
// deletes first, then creates, then modifies/renames, lexicographic by
// path within each kind. This is what makes "build twice with no source
// changes" idempotent (SPEC_FULL.md's carried-forward testable property),
// since map iteration order never leaks into the applied sequence.
func orderBatch(batch watcher.Batch) watcher.Batch {
	events := make([]watcher.Event, len(batch.Events))
	copy(events, batch.Events)

	rank := func(k watcher.Kind) int {
		switch k {
		case watcher.KindDelete:
			return 0
		case watcher.KindCreate:
			return 1
		default:
			return 2
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		ri, rj := rank(events[i].Kind), rank(events[j].Kind)
		if ri != rj {
			return ri < rj
		}
		return events[i].Path < events[j].Path
	})

	return watcher.Batch{Events: events}
}

// applyResult reports the diagnostics and per-file errors observed while
// applying one batch; neither aborts the rest of the batch (§7).
type applyResult struct {
	diagnostics []*errs.LinkDiagnostic
	errs        []error
	reconfig    bool // norgolith.toml changed
	retemplate  bool // a template file changed
}

// apply classifies and loads every event in batch, then mutates s.model
// accordingly. Content documents are converted concurrently over a
// worker pool sized to runtime.NumCPU before anything is written back to
// the model, per §5's "fan out conversion, rejoin, single atomic
// publish" rule; config and template changes are flagged for the caller
// to act on (reloading the engine or re-running the whole batch) since
// they invalidate more than one document.
func (s *stack) apply(batch watcher.Batch, logger log.Logger) applyResult {
	var result applyResult

	events, loadErrs := loader.LoadBatch(s.root, orderBatch(batch))
	result.errs = append(result.errs, loadErrs...)

	var contentEvents []loader.Event
	for _, ev := range events {
		switch ev.Kind {
		case loader.KindConfig:
			result.reconfig = true
		case loader.KindTemplate:
			result.retemplate = true
		case loader.KindContent:
			contentEvents = append(contentEvents, ev)
		case loader.KindAsset:
			// Served straight from disk by internal/server; no model
			// mutation needed.
		}
	}

	type converted struct {
		route  string
		action watcher.Kind
		res    convert.Result
		path   string
	}

	out := make([]converted, len(contentEvents))
	workers := runtime.NumCPU()
	if workers > len(contentEvents) {
		workers = len(contentEvents)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ev := contentEvents[i]
				route := site.RouteFromPath(ev.Path)
				if ev.Action == watcher.KindDelete {
					out[i] = converted{route: route, action: watcher.KindDelete, path: ev.Path}
					continue
				}
				stem := strings.TrimSuffix(filepath.Base(ev.Path), ".norg")
				res := convert.Convert(ev.Content, convert.Options{
					Route:       route,
					Stem:        stem,
					RouteExists: s.model.Snapshot().RouteExists,
				})
				out[i] = converted{route: route, action: ev.Action, res: res, path: ev.Path}
			}
		}()
	}
	for i := range contentEvents {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, c := range out {
		if c.action == watcher.KindDelete {
			s.model.RemoveDocument(c.route)
			continue
		}
		result.diagnostics = append(result.diagnostics, c.res.Diagnostics...)
		s.model.UpsertDocument(&site.Document{
			Route:      c.route,
			SourcePath: c.path,
			Meta:       c.res.Meta,
			HTML:       c.res.HTML,
			Assets:     c.res.Assets,
			Layout:     c.res.Meta.Layout,
		})
	}

	for _, d := range result.diagnostics {
		logger.Warn("broken link", "route", d.Route, "target", d.Target)
	}

	return result
}

// reloadConfig re-reads norgolith.toml and applies it, per §4.4's
// reload_config rule (full index rebuild).
func (s *stack) reloadConfig(logger log.Logger) {
	cfg, err := config.Load(s.root)
	if err != nil {
		logger.Error("config reload failed, keeping previous config", err)
		return
	}
	s.cfg = cfg
	s.model.ReloadConfig(cfg)
}

// reloadTemplates rebuilds the template engine so file changes under
// templates/ or theme/templates/ take effect; pongo2's TemplateSet caches
// compiled templates by name internally, so a fresh Engine is the
// simplest correct way to pick up edits.
func (s *stack) reloadTemplates() {
	s.engine = newEngine(s.root)
}

// writeHighlightCSS resolves the configured highlighting engine's CSS (if
// any) and writes it to assets/chroma.css under root so it is picked up
// by the existing asset-serving paths without any server changes.
func writeHighlightCSS(root string, cfg *config.Config, logger log.Logger) error {
	if !cfg.Highlighter.Enable {
		return nil
	}
	res := highlight.Resolve(cfg.Highlighter.Engine, "", logger)
	if res.CSS == "" {
		return nil
	}

	dir := filepath.Join(root, "assets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &errs.IOError{Path: dir, Err: err}
	}
	path := filepath.Join(dir, highlight.AssetPath)
	if err := os.WriteFile(path, []byte(res.CSS), 0o644); err != nil {
		return &errs.IOError{Path: path, Err: err}
	}
	return nil
}

// copyFile copies src to dst, creating parent directories as needed.
// Used by Build to materialize theme/site assets into the output tree.
func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
