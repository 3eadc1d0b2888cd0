package templates

import (
	"context"
	"io"
	"net/url"
	"regexp"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/gridrules/internal/core"
	"github.com/JonMunkholm/gridrules/internal/workspace"
)

// DashboardData feeds the dataset list page.
type DashboardData struct {
	Datasets   []workspace.Summary
	RuleSets   []string
	Categories []workspace.Category
}

// Dashboard lists loaded datasets and offers an upload form.
func Dashboard(d DashboardData) templ.Component {
	return Layout("Datasets", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.raw(`<h1>Datasets</h1><form id="upload" class="toolbar" enctype="multipart/form-data">`)
		p.raw(`<input type="file" name="file" accept=".csv,text/csv" required><select name="category">`)
		for _, c := range d.Categories {
			p.printf(`<option value="%s">%s</option>`, templ.EscapeString(string(c)), templ.EscapeString(string(c)))
		}
		p.raw(`</select><button type="submit">Upload</button></form><div id="flash"></div>`)

		if len(d.Datasets) == 0 {
			p.raw(`<p>No datasets loaded yet.</p>`)
		} else {
			p.raw(`<table><thead><tr><th>File</th><th>Category</th><th>Rows</th><th>Rule set</th><th>Errors</th><th>Status</th><th>Loaded</th></tr></thead><tbody>`)
			for _, s := range d.Datasets {
				p.printf(`<tr><td><a href="/datasets/%s">`, templ.EscapeString(s.ID))
				p.text(s.FileName)
				p.raw(`</a></td><td>`)
				p.text(string(s.Category))
				p.printf(`</td><td>%d</td><td>`, s.Rows)
				p.text(s.RuleSet)
				p.printf(`</td><td>%d</td><td>`, s.TotalErrors)
				statusBadge(p, s.Status)
				p.printf(`</td><td>%s</td></tr>`, templ.EscapeString(s.LoadedAt.Format("2006-01-02 15:04:05")))
			}
			p.raw(`</tbody></table>`)
		}
		p.raw(uploadScript)
		return p.err
	}))
}

const uploadScript = `<script>
document.getElementById("upload").addEventListener("submit", async (e) => {
  e.preventDefault();
  const res = await fetch("/api/datasets", {method: "POST", body: new FormData(e.target)});
  const body = await res.json();
  if (!res.ok) { document.getElementById("flash").textContent = body.message + " (" + body.code + ")"; return; }
  location.href = "/datasets/" + body.id;
});
</script>`

// DatasetPageData feeds the grid page.
type DatasetPageData struct {
	Snapshot workspace.Snapshot
	RuleSets []string
}

// DatasetPage renders the editable grid with error highlighting.
func DatasetPage(d DatasetPageData) templ.Component {
	s := d.Snapshot
	return Layout(s.FileName, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.printf(`<div id="grid" data-id="%s">`, templ.EscapeString(s.ID))
		p.raw(`<h1>`)
		p.text(s.FileName)
		p.raw(`</h1><div class="toolbar"><label>Rule set <select id="rule-set"><option value="">(none)</option>`)
		for _, name := range d.RuleSets {
			selected := ""
			if name == s.RuleSet {
				selected = " selected"
			}
			p.printf(`<option value="%s"%s>%s</option>`, templ.EscapeString(name), selected, templ.EscapeString(name))
		}
		p.raw(`</select></label>`)
		statusBadge(p, s.Status)
		p.printf(`<span><span id="total-errors">%d</span> errors in %d rows</span>`, s.TotalErrors, s.ErrorRows)
		if s.ErrorRows > 0 {
			p.raw(`<button id="next-error" type="button">Next error</button>`)
		}
		p.printf(`<a href="/api/datasets/%[1]s/export?format=csv">Export CSV</a><a href="/api/datasets/%[1]s/export?format=json">Export JSON</a>`, templ.EscapeString(s.ID))
		if s.RuleSet != "" {
			p.printf(`<a href="/api/datasets/%s/rules/export">Export rules</a>`, templ.EscapeString(s.ID))
		}
		p.raw(`</div><div id="flash"></div>`)

		p.raw(`<table><thead><tr><th>#</th>`)
		for _, col := range s.Dataset.Columns {
			p.raw(`<th>`)
			p.text(col)
			p.raw(`</th>`)
		}
		p.raw(`</tr></thead><tbody>`)
		for i, row := range s.Dataset.Rows {
			p.printf(`<tr id="row-%d" data-row="%d"><td>%d</td>`, i, i, i+1)
			for _, col := range s.Dataset.Columns {
				v, _ := row.Value(col)
				if ce, bad := row.Error(col); bad {
					p.printf(`<td contenteditable data-col="%s" style="background:%s" title="%s">`,
						templ.EscapeString(col), cellColor(ce), templ.EscapeString(ce.Error))
				} else {
					p.printf(`<td contenteditable data-col="%s">`, templ.EscapeString(col))
				}
				p.text(core.ToText(v))
				p.raw(`</td>`)
			}
			p.raw(`</tr>`)
		}
		p.raw(`</tbody></table></div>`)
		p.raw(gridScript)
		return p.err
	}))
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// cellColor returns a translucent highlight for ce. Colors that are not
// plain hex fall back to the default so they cannot inject CSS.
func cellColor(ce core.CellError) string {
	c := ce.Color
	if !hexColor.MatchString(c) {
		c = core.DefaultErrorColor
	}
	if len(c) == 4 {
		c = "#" + string([]byte{c[1], c[1], c[2], c[2], c[3], c[3]})
	}
	return c + "40"
}

const gridScript = `<script>
const grid = document.getElementById("grid");
const id = grid.dataset.id;
const flash = (msg) => { document.getElementById("flash").textContent = msg; };
async function post(path, body) {
  const res = await fetch("/api/datasets/" + id + path, {method: "POST", headers: {"Content-Type": "application/json"}, body: JSON.stringify(body || {})});
  const data = await res.json();
  if (!res.ok) { flash(data.message + " (" + data.code + ")"); return null; }
  return data;
}
grid.addEventListener("focusout", async (e) => {
  const td = e.target.closest("td[data-col]");
  if (!td) return;
  const row = Number(td.closest("tr").dataset.row);
  if (td.textContent === td.dataset.orig) return;
  if (await post("/cells", {row: row, column: td.dataset.col, value: td.textContent})) location.reload();
});
grid.addEventListener("focusin", (e) => {
  const td = e.target.closest("td[data-col]");
  if (td) td.dataset.orig = td.textContent;
});
document.getElementById("rule-set").addEventListener("change", async (e) => {
  if (await post("/rule-set", {name: e.target.value})) location.reload();
});
const next = document.getElementById("next-error");
if (next) next.addEventListener("click", async () => {
  const data = await post("/next-error");
  if (!data) return;
  document.querySelectorAll("tr.focus").forEach((tr) => tr.classList.remove("focus"));
  const tr = document.getElementById("row-" + data.row);
  tr.classList.add("focus");
  tr.scrollIntoView({block: "center"});
});
</script>`

// RuleSetsPage lists stored rule sets with their rules.
func RuleSetsPage(sets []core.RuleSet) templ.Component {
	return Layout("Rule sets", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.raw(`<h1>Rule sets</h1>`)
		if len(sets) == 0 {
			p.raw(`<p>No rule sets yet. Create one through the API or import a rules file.</p>`)
		}
		for _, set := range sets {
			p.raw(`<section><h2>`)
			p.text(set.Name)
			p.printf(`</h2><p><a href="/api/rule-sets/%[1]s/export?format=json">JSON</a> · <a href="/api/rule-sets/%[1]s/export?format=yaml">YAML</a></p>`,
				templ.EscapeString(url.PathEscape(set.Name)))
			p.raw(`<table><thead><tr><th>Column</th><th>Type</th><th>Message</th><th>Color</th></tr></thead><tbody>`)
			for _, r := range set.Rules {
				p.raw(`<tr><td>`)
				p.text(r.Column)
				p.raw(`</td><td>`)
				p.text(string(r.Kind()))
				if r.IsInert() {
					p.raw(` <small>(inactive)</small>`)
				}
				p.raw(`</td><td>`)
				p.text(r.ErrorMessage)
				p.raw(`</td><td>`)
				p.text(r.ErrorColor)
				p.raw(`</td></tr>`)
			}
			p.raw(`</tbody></table></section>`)
		}
		return p.err
	}))
}

func statusBadge(p *writer, s workspace.Status) {
	p.printf(`<span class="badge %s">%s</span>`, templ.EscapeString(string(s)), templ.EscapeString(statusLabel(s)))
}

func statusLabel(s workspace.Status) string {
	switch s {
	case workspace.StatusValid:
		return "valid"
	case workspace.StatusInvalid:
		return "has errors"
	default:
		return "no rule set"
	}
}
