package dashboard

import (
	"html/template"
	"io"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/config"
	"github.com/aouyang1/go-inflation-forecaster/observation"
)

const PageTitle = "Nigeria Inflation Forecasting Model"

type pageData struct {
	Title      string
	Inputs     Inputs
	MinHorizon int
	MaxHorizon int
	Query      template.URL
	View       *View
	Error      string
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format(time.DateOnly)
	},
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	},
	"minValue": func() float64 { return observation.MinManualValue },
	"maxValue": func() float64 { return observation.MaxManualValue },
}

var pageTmpl = template.Must(template.New("page").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { padding: 4px 10px; border-bottom: 1px solid #ddd; text-align: right; }
.error { color: #b00020; border: 1px solid #b00020; padding: 1em; }
iframe { border: 0; width: 100%; height: 520px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>

<form id="inputs" method="get" action="/">
  <label>Select number of months to forecast
    <input type="range" name="horizon" min="{{.MinHorizon}}" max="{{.MaxHorizon}}" value="{{.Inputs.Horizon}}"
      oninput="this.nextElementSibling.value = this.value" onchange="this.form.submit()">
    <output>{{.Inputs.Horizon}}</output>
  </label>
  <br>
  <label><input type="checkbox" name="manual" {{if .Inputs.ManualEnabled}}checked{{end}} onchange="this.form.submit()">
    Input current month's inflation</label>
  {{if .Inputs.ManualEnabled}}
  <label>Enter current inflation rate (%)
    <input type="number" name="value" min="{{minValue}}" max="{{maxValue}}" step="0.1" value="{{.Inputs.ManualValue}}">
  </label>
  <button type="submit">Apply</button>
  {{end}}
</form>
<button id="refresh" type="button">Refresh data</button>

{{if .Error}}
<div class="error">{{.Error}}</div>
{{else}}
<details>
  <summary>Show Raw Data</summary>
  <table>
    <tr><th>Date</th><th>Inflation</th></tr>
    {{range .View.RawTail}}<tr><td>{{date .Date}}</td><td>{{printf "%.3f" .Value}}</td></tr>
    {{end}}
  </table>
  <p>Fetched at {{stamp .View.FetchedAt}}</p>
</details>

<iframe src="/chart?{{.Query}}" title="Inflation Forecast"></iframe>

<details>
  <summary>Show Forecasted Values</summary>
  <table>
    <tr><th>Date</th><th>Forecast</th><th>Lower Bound</th><th>Upper Bound</th></tr>
    {{range .View.Table}}<tr><td>{{date .Date}}</td><td>{{printf "%.3f" .Forecast}}</td><td>{{printf "%.3f" .Lower}}</td><td>{{printf "%.3f" .Upper}}</td></tr>
    {{end}}
  </table>
  <p>R2 {{printf "%.3f" .View.Scores.R2}} MSE {{printf "%.3f" .View.Scores.MSE}}</p>
</details>

<p>
  <a href="/download/csv?{{.Query}}">Download Forecast as CSV</a> |
  <a href="/download/xlsx?{{.Query}}">Download Forecast as XLSX</a>
</p>
{{end}}

<script>
document.getElementById("refresh").addEventListener("click", function () {
  fetch("/api/refresh", {method: "POST"}).then(function () { window.location.reload(); });
});
</script>
</body>
</html>
`))

// RenderPage writes the dashboard page. A non-nil err renders the error in place of the view.
func RenderPage(w io.Writer, in Inputs, v *View, err error) error {
	data := pageData{
		Title:      PageTitle,
		Inputs:     in,
		MinHorizon: config.MinHorizon,
		MaxHorizon: config.MaxHorizon,
		Query:      template.URL(in.Query().Encode()),
		View:       v,
	}
	if err != nil {
		data.Error = err.Error()
	}
	if v == nil && data.Error == "" {
		data.Error = "no forecast available"
	}
	return pageTmpl.Execute(w, data)
}
