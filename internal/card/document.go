package card

import (
	_ "embed"
	"html/template"
	"io"
	"time"
)

//go:embed static/document.html
var documentHTML string

var documentTmpl = template.Must(template.New("document").Funcs(template.FuncMap{
	"orDefault": func(value string) string {
		if value == "" {
			return "Não informado"
		}
		return value
	},
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02/01/2006 15:04")
	},
}).Parse(documentHTML))

// RenderDocument writes the printable vaccination document for a card. The
// card is consumed read-only; export mechanics (print, rasterization) are
// the caller's concern.
func RenderDocument(w io.Writer, c VaccinationCard) error {
	return documentTmpl.Execute(w, c)
}
