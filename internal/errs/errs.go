// Package errs defines the distinct error kinds the build-and-serve
// pipeline distinguishes between, per the propagation policy in
// SPEC_FULL.md §7. Each type carries enough context (route, path, template
// name) for the pipeline to decide how far the error propagates.
package errs

import "fmt"

// ConfigError wraps a failure to load or parse norgolith.toml.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IOError scopes a file read/write failure to a single path; it never
// aborts the rest of a build.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError records a Norg parser failure for a single document. The
// site model still retains a diagnostic-placeholder document for Route.
type ParseError struct {
	Route string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Route, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TemplateError scopes a template compile or render failure to the
// affected route(s); other routes keep rendering normally.
type TemplateError struct {
	Template string
	Route    string
	Err      error
}

func (e *TemplateError) Error() string {
	if e.Route != "" {
		return fmt.Sprintf("template %s (route %s): %v", e.Template, e.Route, e.Err)
	}
	return fmt.Sprintf("template %s: %v", e.Template, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// LinkDiagnostic records a cross-document link whose target route does not
// exist in the site model at render time. It never blocks a build.
type LinkDiagnostic struct {
	Route  string // route of the document containing the link
	Target string // resolved target route
}

func (d *LinkDiagnostic) Error() string {
	return fmt.Sprintf("broken link in %s: target %s not found", d.Route, d.Target)
}

// WatcherError wraps a transient error surfaced by the OS-level watch
// facility. The watcher logs and continues, and counts recurrences itself
// (see SPEC_FULL.md §7).
type WatcherError struct {
	Err error
}

func (e *WatcherError) Error() string {
	return fmt.Sprintf("watcher: %v", e.Err)
}

func (e *WatcherError) Unwrap() error { return e.Err }
