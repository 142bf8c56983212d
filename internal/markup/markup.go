// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markup cleans free-text descriptions on the way in and renders them
// as sanitized Markdown on the way out.
package markup

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	// stripPolicy removes every tag, including script and style bodies.
	stripPolicy = bluemonday.StrictPolicy()

	// outputPolicy allows the formatting goldmark emits for user text.
	outputPolicy = bluemonday.UGCPolicy()

	md = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))
)

// Clean strips HTML from user input and trims surrounding whitespace. The
// result is plain text suitable for storage.
func Clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

// Render converts stored Markdown text to HTML that is safe to embed.
func Render(s string) template.HTML {
	if s == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s)) // #nosec G203 -- escaped above
	}

	return template.HTML(outputPolicy.SanitizeBytes(buf.Bytes())) // #nosec G203 -- sanitized by bluemonday
}
