package export

import (
	"bytes"
	"html/template"
	"time"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  @page { size: A4; margin: 18mm 14mm; }
  body { font-family: Helvetica, Arial, sans-serif; color: #1f1f1f; }
  h1 { font-size: 20pt; margin: 0 0 4px 0; }
  .generated { font-size: 11pt; color: #646464; margin-bottom: 18px; }
  table { width: 100%; border-collapse: collapse; font-size: 10pt; }
  th { background: #240046; color: #ffffff; text-align: left; }
  th, td { border: 1px solid #c8c8c8; padding: 6px 8px; }
  td.count { text-align: right; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="generated">Generated on: {{.Generated}}</div>
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Name}}</td><td>{{index .Cells 1}}</td><td>{{.Email}}</td><td>{{index .Cells 3}}</td><td class="count">{{.TotalReports}}</td></tr>
{{end}}</tbody>
</table>
</body>
</html>`))

// RenderHTML renders the report page that PDF export prints.
func RenderHTML(rows []Row, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, struct {
		Title     string
		Generated string
		Headers   []string
		Rows      []Row
	}{
		Title:     reportTitle,
		Generated: now.Format("02 Jan 2006, 15:04"),
		Headers:   Headers,
		Rows:      rows,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
