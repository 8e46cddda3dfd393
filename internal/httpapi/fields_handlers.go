package httpapi

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kismetwireless/kismet-core/internal/entity"
)

// handleTrackedFields renders the field registry as an HTML page: a bar
// chart of field counts per kind, followed by a plain table of every
// registered field, one row per id.
func (s *Server) handleTrackedFields(w http.ResponseWriter, r *http.Request) {
	if s.Registry == nil {
		writeJSONError(w, http.StatusInternalServerError, "entity registry unavailable")
		return
	}

	fields := s.Registry.AllFields()

	counts := map[entity.Kind]int{}
	for _, f := range fields {
		counts[f.Kind]++
	}
	kinds := make([]entity.Kind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	xAxis := make([]string, 0, len(kinds))
	barData := make([]opts.BarData, 0, len(kinds))
	for _, k := range kinds {
		xAxis = append(xAxis, k.String())
		barData = append(barData, opts.BarData{Value: counts[k]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Tracked Fields", Subtitle: fmt.Sprintf("%d registered fields", len(fields))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xAxis).
		AddSeries("fields by kind", barData, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
	_, _ = w.Write([]byte(renderFieldTable(fields)))
}

func renderFieldTable(fields []entity.FieldDescriptor) string {
	var buf bytes.Buffer
	buf.WriteString("<table border=\"1\" cellpadding=\"4\" cellspacing=\"0\"><tr><th>id</th><th>name</th><th>kind</th><th>description</th></tr>")
	for _, f := range fields {
		fmt.Fprintf(&buf, "<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			f.ID, html.EscapeString(f.Name), html.EscapeString(f.Kind.String()), html.EscapeString(f.Description))
	}
	buf.WriteString("</table>")
	return buf.String()
}
