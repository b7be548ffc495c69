package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"go.uber.org/zap"

	"diabetesrisk/ml"
	"diabetesrisk/risk"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageTitle = "🩺 Diabetes Risk Predictor"
	// chart geometry, in SVG user units
	chartLabelWidth = 210.0
	chartBarWidth   = 340.0
	chartRowHeight  = 28
)

type fieldView struct {
	ml.InputField
	Value string
}

type pageData struct {
	Title      string
	Columns    [2][]fieldView
	Sidebar    template.HTML
	Assessment *risk.Assessment
	Error      string
}

func newPageData(inputs ml.Measurements, sidebar template.HTML) *pageData {
	data := &pageData{Title: pageTitle, Sidebar: sidebar}
	fields := ml.InputFields()
	values := inputs.FeatureVector()
	half := (len(fields) + 1) / 2
	for i, field := range fields {
		column := 0
		if i >= half {
			column = 1
		}
		data.Columns[column] = append(data.Columns[column], fieldView{
			InputField: field,
			Value:      formatValue(field, values[i]),
		})
	}
	return data
}

func formatValue(field ml.InputField, v float64) string {
	if field.Integer {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parsePage() (*template.Template, error) {
	funcs := template.FuncMap{
		"percent": risk.FormatPercent,
		"chartHeight": func(impacts []risk.Impact) int {
			return len(impacts)*chartRowHeight + 8
		},
		"rowY": func(i int) int {
			return i * chartRowHeight
		},
		"barWidth": func(share float64) string {
			return strconv.FormatFloat(share*chartBarWidth, 'f', 1, 64)
		},
		"valueX": func(share float64) string {
			return strconv.FormatFloat(chartLabelWidth+share*chartBarWidth+6, 'f', 1, 64)
		},
		"numberAttr": func(v float64) string {
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
	}
	page, err := template.New("index.html").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	return page, nil
}

func (a *App) renderPage(w http.ResponseWriter, r *http.Request, status int, data *pageData) {
	var buf bytes.Buffer
	if err := a.page.ExecuteTemplate(&buf, "index.html", data); err != nil {
		a.logger.Error("render page failed", zap.Error(err), zap.String("request_id", GetRequestID(r.Context())))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderSidebar turns the field help into the feature information panel.
func renderSidebar(fields []ml.InputField) template.HTML {
	var md strings.Builder
	for _, field := range fields {
		fmt.Fprintf(&md, "**🔹 %s**  \n*%s*  \n📈 eg values: %s\n\n", field.Name, field.Help, field.Example)
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	// Generated from the fixed field table only, never from request data.
	return template.HTML(markdown.ToHTML([]byte(md.String()), p, renderer))
}
