package storage

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"catalog-scraper/models"
	"catalog-scraper/utils"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} - page {{.Number}} of {{.Total}}</title>
</head>
<body style="font-family: sans-serif; margin: 20px;">
<h1 style="font-size: 1.4em;">{{.Title}}</h1>
<p>Items sorted by likes, page {{.Number}} of {{.Total}} ({{len .Items}} items)</p>
{{template "nav" .}}
<div class="items" style="display: flex; flex-wrap: wrap;">
{{- range .Items}}
<div class="item" style="width: 200px; margin: 10px;">
<a href="{{.URL}}" target="_blank" rel="noopener" style="color: inherit; text-decoration: none;">
{{- if .ImageURL}}
<img src="{{.ImageURL}}" alt="" style="width: 100%; height: auto;"><br>
{{- end}}
<p class="stats" style="margin: 4px 0;">❤️ {{.Popularity}} - €{{price .Price}}</p>
{{- if .Brand}}
<p class="brand" style="margin: 0; color: #666;">{{.Brand}}</p>
{{- end}}
</a>
</div>
{{- else}}
<p class="empty">No items found.</p>
{{- end}}
</div>
{{template "nav" .}}
</body>
</html>
{{define "nav"}}<nav style="margin: 10px 0;">
{{- if .Prev}}<a class="prev" href="{{.Prev}}">&larr; Previous</a>{{end}}
{{- if and .Prev .Next}} | {{end}}
{{- if .Next}}<a class="next" href="{{.Next}}">Next &rarr;</a>{{end -}}
</nav>{{end}}
`

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"price": func(p float64) string { return fmt.Sprintf("%.2f", p) },
}).Parse(pageTemplate))

// pageView is the data handed to the page template.
type pageView struct {
	Title  string
	Number int
	Total  int
	Items  []*models.ItemRecord
	Prev   string
	Next   string
}

// HTMLWriter writes one self-contained HTML document per report page.
type HTMLWriter struct {
	dir    string
	title  string
	logger *utils.Logger
}

// NewHTMLWriter creates a writer emitting page_<n>.html files into dir.
func NewHTMLWriter(dir, title string, logger *utils.Logger) *HTMLWriter {
	return &HTMLWriter{dir: dir, title: title, logger: logger.WithPrefix("html")}
}

// PageFileName is the file name of report page n.
func PageFileName(n int) string {
	return fmt.Sprintf("page_%d.html", n)
}

// Write renders every page, replacing the pages of any earlier run. Nothing
// on disk changes if a page fails to render.
func (w *HTMLWriter) Write(pages []*models.ReportPage) ([]string, error) {
	rendered := make([][]byte, 0, len(pages))
	for _, p := range pages {
		view := pageView{
			Title:  w.title,
			Number: p.Number,
			Total:  p.Total,
			Items:  p.Items,
		}
		if !p.First() {
			view.Prev = PageFileName(p.Number - 1)
		}
		if !p.Last() {
			view.Next = PageFileName(p.Number + 1)
		}

		var buf bytes.Buffer
		if err := pageTmpl.Execute(&buf, view); err != nil {
			return nil, fmt.Errorf("html: render page %d: %w", p.Number, err)
		}
		rendered = append(rendered, buf.Bytes())
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, fmt.Errorf("html: create output dir: %w", err)
	}
	if err := w.removeStale(); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(pages))
	for i, p := range pages {
		path := filepath.Join(w.dir, PageFileName(p.Number))
		if err := os.WriteFile(path, rendered[i], 0644); err != nil {
			return paths, fmt.Errorf("html: write %q: %w", path, err)
		}
		paths = append(paths, path)
		w.logger.Debug("%s written (%d items)", path, len(p.Items))
	}

	w.logger.Debug("%d report pages written to %s", len(paths), w.dir)
	return paths, nil
}

func (w *HTMLWriter) removeStale() error {
	stale, err := filepath.Glob(filepath.Join(w.dir, "page_*.html"))
	if err != nil {
		return fmt.Errorf("html: list old pages: %w", err)
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("html: remove old page %q: %w", path, err)
		}
	}
	return nil
}
