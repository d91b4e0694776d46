package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// NewCommand scaffolds a new content document: a page under content/ or a
// post under content/posts/, per SPEC_FULL.md §6's `lith new -k
// {content|post} <name>`.
type NewCommand struct {
	kind        string // "content" or "post"
	name        string
	projectRoot string
	title       string
}

// NewNewCommand creates a new 'new' command. kind is "content" or "post".
func NewNewCommand(kind, name string) *NewCommand {
	return &NewCommand{
		kind:        kind,
		name:        name,
		projectRoot: ".",
	}
}

// WithProjectRoot sets the project root directory.
func (nc *NewCommand) WithProjectRoot(root string) *NewCommand {
	if root != "" {
		nc.projectRoot = root
	}
	return nc
}

// WithTitle overrides the metadata title (defaults to a titlecased name).
func (nc *NewCommand) WithTitle(title string) *NewCommand {
	if title != "" {
		nc.title = title
	}
	return nc
}

// Execute writes the new document's .norg source file.
func (nc *NewCommand) Execute(ctx context.Context) error {
	if nc.kind != "content" && nc.kind != "post" {
		return fmt.Errorf("unknown kind %q: expected content or post", nc.kind)
	}
	if nc.name == "" {
		return fmt.Errorf("name is required")
	}

	slug := slugify(nc.name)
	var relPath string
	if nc.kind == "post" {
		relPath = filepath.Join("content", "posts", slug+".norg")
	} else {
		relPath = filepath.Join("content", slug+".norg")
	}

	path := filepath.Join(nc.projectRoot, relPath)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", relPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	title := nc.title
	if title == "" {
		title = titlecase(nc.name)
	}

	body := contentTemplate(title)
	if nc.kind == "post" {
		body = postContentTemplate(title)
	}

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}

	fmt.Printf("created %s\n", relPath)
	return nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '_', r == '-':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

func titlecase(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, f := range fields {
		if f == "" {
			continue
		}
		fields[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return strings.Join(fields, " ")
}

func contentTemplate(title string) string {
	return fmt.Sprintf(`@document.meta
title: %s
description:
layout: default
@end

* %s
`, title, title)
}

func postContentTemplate(title string) string {
	return fmt.Sprintf(`@document.meta
title: %s
description:
layout: post
authors: []
categories: []
created: %s
draft: true
@end

* %s
`, title, time.Now().Format("2006-01-02T15:04:05Z07:00"), title)
}
