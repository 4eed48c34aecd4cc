// Package templates renders the HTML pages of the estimator. Components are
// plain templ.Component values so handlers can render either a full page or
// the HTMX partial for the same data.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// page collects markup and escapes interpolated text.
type page struct {
	sb strings.Builder
}

func (p *page) raw(s string) { p.sb.WriteString(s) }

func (p *page) text(s string) { p.sb.WriteString(templ.EscapeString(s)) }

// rawf formats into markup; every string argument is escaped first.
func (p *page) rawf(format string, args ...any) {
	for i, a := range args {
		if s, ok := a.(string); ok {
			args[i] = templ.EscapeString(s)
		}
	}
	fmt.Fprintf(&p.sb, format, args...)
}

func (p *page) flush(w io.Writer) error {
	_, err := io.WriteString(w, p.sb.String())
	return err
}

// render adapts a markup builder into a component.
func render(build func(p *page)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var p page
		build(&p)
		return p.flush(w)
	})
}

const styles = `body{font-family:system-ui,sans-serif;margin:0;color:#222;background:#f6f7f9}
header{background:#1f3a5f;color:#fff;padding:12px 24px;display:flex;gap:24px;align-items:center}
header a{color:#fff;text-decoration:none}
main{max-width:1100px;margin:24px auto;padding:0 16px}
table{border-collapse:collapse;width:100%;background:#fff}
th,td{border:1px solid #ccc;padding:6px 8px;text-align:left;font-size:14px}
th{background:#333;color:#fff}
td.num{text-align:right}
.card{background:#fff;border:1px solid #ddd;border-radius:6px;padding:16px;margin-bottom:16px}
.muted{color:#666}
.ok{color:#1b7f3b}
.fail{color:#b42318}
#toast{position:fixed;top:16px;right:16px}`

// Layout wraps content in the application shell.
func Layout(title string, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var head page
		head.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		head.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		head.rawf(`<title>%s</title>`, title)
		head.raw(`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`)
		head.raw(`<style>` + styles + `</style></head><body>`)
		head.raw(`<header><strong>Road Safety Estimator</strong>`)
		head.raw(`<a href="/">New estimate</a><a href="/catalog">Catalog</a></header>`)
		head.raw(`<div id="toast"></div><main id="main">`)
		if err := head.flush(w); err != nil {
			return err
		}
		if err := content.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}
