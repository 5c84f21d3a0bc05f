// Package prompt renders the system prompt sent ahead of every chat
// conversation.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed system.tmpl
var systemTemplate string

var tmpl = template.Must(template.New("system").Parse(systemTemplate))

// Page is a site page the assistant can navigate to.
type Page struct {
	Name string
	Path string
}

// Pages lists the navigable site pages.
var Pages = []Page{
	{Name: "Home", Path: "/"},
	{Name: "Services", Path: "/services"},
	{Name: "About", Path: "/about"},
	{Name: "Contact", Path: "/contact"},
	{Name: "Blog", Path: "/blog"},
	{Name: "Privacy", Path: "/privacy"},
	{Name: "Terms", Path: "/terms"},
}

// Data fills the system prompt template.
type Data struct {
	ContactEmail string
	Pages        []Page
}

// Render builds the system prompt.
func Render(data Data) (string, error) {
	if data.Pages == nil {
		data.Pages = Pages
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}

// MustRender is Render for static data known to be valid.
func MustRender(data Data) string {
	s, err := Render(data)
	if err != nil {
		panic(err)
	}
	return s
}
