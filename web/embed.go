// Package web embeds the HTML templates and static assets.
package web

import "embed"

// TemplatesFS holds the layout and partials (templates/*.html) and one file
// per page (templates/pages/*.html).
//
//go:embed templates/*.html templates/pages/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
