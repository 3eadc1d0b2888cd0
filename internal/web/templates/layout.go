// Package templates renders the HTML pages as templ components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f7f7f8;color:#1f2328}
header{background:#1f2937;color:#fff;padding:.75rem 1.5rem;display:flex;gap:1.5rem;align-items:center}
header a{color:#e5e7eb;text-decoration:none}
main{padding:1.5rem}
table{border-collapse:collapse;background:#fff}
th,td{border:1px solid #d0d7de;padding:.3rem .6rem;text-align:left;font-size:.9rem}
th{background:#eef1f4;position:sticky;top:0}
td[contenteditable]{min-width:4rem}
tr.focus td{outline:2px solid #2563eb}
.alert{border:1px solid #f5c2c7;background:#f8d7da;color:#842029;padding:.75rem 1rem;border-radius:.25rem;margin-bottom:1rem}
.badge{display:inline-block;padding:.1rem .5rem;border-radius:999px;font-size:.8rem}
.valid{background:#d1e7dd}.invalid{background:#f8d7da}.no_rule_set{background:#e2e3e5}
.toolbar{display:flex;gap:.75rem;align-items:center;margin-bottom:1rem;flex-wrap:wrap}
pre{background:#fff;border:1px solid #d0d7de;padding:.75rem;overflow:auto}
`

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s · gridrules</title><style>%s</style></head><body>`,
			templ.EscapeString(title), styles); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<header><strong>gridrules</strong><a href="/">Datasets</a><a href="/rule-sets">Rule sets</a></header><main>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert" role="alert"><strong>%s</strong>`, templ.EscapeString(message))
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, ` %s.`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, ` <small>(%s)</small></div>`, templ.EscapeString(code))
		return err
	})
}

// ErrorPage renders a full page around ErrorAlert.
func ErrorPage(message, action, code string) templ.Component {
	return Layout("Error", ErrorAlert(message, action, code))
}

// writer accumulates the first write error so page bodies read linearly.
type writer struct {
	w   io.Writer
	err error
}

func (p *writer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *writer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

// text writes s HTML-escaped.
func (p *writer) text(s string) {
	p.raw(templ.EscapeString(s))
}
