package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// InitCommand scaffolds a new norgolith project: norgolith.toml, the
// content/templates/theme/assets layout named in SPEC_FULL.md §6, and a
// minimal default template set so `lith serve`/`lith build` work out of
// the box.
type InitCommand struct {
	projectName string
	projectPath string
	title       string
	author      string
}

// NewInitCommand creates a new init command.
func NewInitCommand(projectName string) *InitCommand {
	return &InitCommand{
		projectName: projectName,
		projectPath: projectName,
		title:       projectName,
	}
}

// WithTitle sets the site title recorded in norgolith.toml.
func (ic *InitCommand) WithTitle(title string) *InitCommand {
	if title != "" {
		ic.title = title
	}
	return ic
}

// WithAuthor sets the site author recorded in norgolith.toml.
func (ic *InitCommand) WithAuthor(author string) *InitCommand {
	ic.author = author
	return ic
}

// WithPath sets the directory the project is created in.
func (ic *InitCommand) WithPath(path string) *InitCommand {
	if path != "" {
		ic.projectPath = path
	}
	return ic
}

// Execute scaffolds the project directory tree.
func (ic *InitCommand) Execute(ctx context.Context) error {
	if ic.projectName == "" {
		return fmt.Errorf("project name is required")
	}

	absPath, err := filepath.Abs(ic.projectPath)
	if err != nil {
		return fmt.Errorf("failed to resolve project path: %w", err)
	}

	dirs := []string{
		absPath,
		filepath.Join(absPath, "content"),
		filepath.Join(absPath, "content", "posts"),
		filepath.Join(absPath, "templates"),
		filepath.Join(absPath, "theme", "templates"),
		filepath.Join(absPath, "theme", "assets"),
		filepath.Join(absPath, "assets"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	files := map[string]string{
		filepath.Join(absPath, "norgolith.toml"):                    configTOML(ic.title, ic.author),
		filepath.Join(absPath, "content", "index.norg"):              indexNorg(ic.title),
		filepath.Join(absPath, "content", "404.norg"):                notFoundNorg(),
		filepath.Join(absPath, "theme", "templates", "default.html"): defaultTemplate,
		filepath.Join(absPath, "theme", "templates", "post.html"):    postTemplate,
		filepath.Join(absPath, "theme", "templates", "404.html"):     notFoundTemplate,
	}
	for path, contents := range files {
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	return nil
}

func configTOML(title, author string) string {
	return fmt.Sprintf(`rootUrl = "http://localhost:8080"
language = "en"
title = "%s"
author = "%s"

[highlighter]
enable = true
engine = "chroma"

[rss]
description = "%s"
ttl = 60
image = ""

[extra]
`, title, author, title)
}

func indexNorg(title string) string {
	return fmt.Sprintf(`@document.meta
title: %s
description: Welcome to your new norgolith site
@end

* Welcome

This is your new site, built with norgolith.
`, title)
}

func notFoundNorg() string {
	return `@document.meta
title: Not Found
layout: 404
@end

* Page not found

The page you were looking for does not exist.
`
}

const defaultTemplate = `<!DOCTYPE html>
<html lang="{{ config.Language }}">
<head>
  <meta charset="utf-8">
  <title>{{ metadata.Title|default(config.Title) }} - {{ config.Title }}</title>
</head>
<body>
  {% block content %}{{ content|safe }}{% endblock %}
</body>
</html>
`

const postTemplate = `{% extends "default.html" %}
{% block content %}
<article>
  <h1>{{ metadata.Title }}</h1>
  <time>{{ metadata.Created|date("2006-01-02") }}</time>
  {{ content|safe }}
</article>
{% endblock %}
`

const notFoundTemplate = `{% extends "default.html" %}
{% block content %}
<h1>404</h1>
{{ content|safe }}
{% endblock %}
`
