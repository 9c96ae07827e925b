package cmd

import (
	"bytes"
	"fmt"
	"html"
	"image/color"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/zalepa/censo/census"
	"github.com/zalepa/censo/dashboard"
)

const (
	pageWidth  = 8.5 * vg.Inch
	pageHeight = 11 * vg.Inch
	pdfMargin  = 0.75 * vg.Inch

	chartWidth  = 6 * vg.Inch
	chartHeight = 2.4 * vg.Inch
)

var barIndigo = color.RGBA{R: 79, G: 70, B: 229, A: 255}

// pdfText replaces glyphs the Liberation font in vgpdf doesn't render.
func pdfText(s string) string {
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "—", "-")
	return strings.ReplaceAll(s, "–", "-")
}

// cardPlot draws a breakdown card as horizontal bars of each part's
// percentage, labeled with the part name and absolute value.
func cardPlot(c census.Card) (*plot.Plot, error) {
	values := make(plotter.Values, len(c.Bars))
	labels := make([]string, len(c.Bars))
	// NominalY lists labels bottom-up; reverse so the first part is on top.
	for i, b := range c.Bars {
		j := len(c.Bars) - 1 - i
		values[j] = b.Width
		labels[j] = pdfText(b.Text() + "  " + b.PercentText())
	}

	p := plot.New()
	p.Title.Text = pdfText(c.Title)
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.BackgroundColor = color.White

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return nil, fmt.Errorf("bar chart %s: %w", c.Group, err)
	}
	bars.Horizontal = true
	bars.Color = barIndigo
	bars.LineStyle.Width = 0
	p.Add(bars, plotter.NewGrid())

	p.NominalY(labels...)
	p.X.Min = 0
	p.X.Max = 100
	p.X.Label.Text = "%"
	p.X.Tick.Marker = percentTicks{}
	return p, nil
}

type percentTicks struct{}

func (percentTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for v := 0.0; v <= 100; v += 25 {
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}
	return ticks
}

// writeCardPNG renders a breakdown card as a PNG image.
func writeCardPNG(w io.Writer, c census.Card) error {
	p, err := cardPlot(c)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return fmt.Errorf("png writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// renderReport lays out a municipality's highlights and breakdown cards on
// letter-size PDF pages.
func renderReport(title string, v dashboard.View) ([]byte, error) {
	c := vgpdf.New(pageWidth, pageHeight)

	dc := draw.New(c)
	area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
	usableW := pageWidth - 2*pdfMargin

	y := area.Max.Y - vg.Points(16)
	fillText(area, pdfText(title), vg.Points(16), area.Min.X, y, color.Black)
	y -= 0.3 * vg.Inch
	if v.Error != "" {
		fillText(area, pdfText(v.Error), vg.Points(11), area.Min.X, y, color.RGBA{R: 200, A: 255})
		y -= 0.3 * vg.Inch
	}

	// Highlights: label over value, side by side.
	if len(v.Highlights) > 0 {
		colW := usableW / vg.Length(len(v.Highlights))
		for i, h := range v.Highlights {
			x := area.Min.X + vg.Length(i)*colW
			fillText(area, strings.ToUpper(pdfText(h.Label)), vg.Points(8), x, y, color.Gray{Y: 100})
			fillText(area, pdfText(h.Value), vg.Points(14), x, y-vg.Points(18), color.Black)
		}
		y -= 0.6 * vg.Inch
	}
	strokeHLine(area, area.Min.X, area.Min.X+usableW, y, color.Gray{Y: 180})
	y -= vg.Points(8)

	for _, card := range v.Cards {
		h := chartHeight
		if card.Note != "" {
			h += vg.Points(14)
		}
		if y-h < area.Min.Y {
			c.NextPage()
			dc = draw.New(c)
			area = draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
			y = area.Max.Y
		}

		p, err := cardPlot(card)
		if err != nil {
			return nil, err
		}
		chartArea := draw.Canvas{
			Canvas: area.Canvas,
			Rectangle: vg.Rectangle{
				Min: vg.Point{X: area.Min.X, Y: y - chartHeight},
				Max: vg.Point{X: area.Min.X + usableW, Y: y},
			},
		}
		p.Draw(chartArea)
		y -= chartHeight
		if card.Note != "" {
			fillText(area, pdfText(card.Note), vg.Points(9), area.Min.X, y-vg.Points(10), color.Gray{Y: 100})
			y -= vg.Points(14)
		}
		y -= vg.Points(10)
	}

	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// verifyReport re-reads a generated PDF and returns its page count.
func verifyReport(data []byte) (int, error) {
	ctx, err := pdfcpu.Read(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return ctx.PageCount, nil
}

// reportExporter adapts renderReport to the dashboard's export formats.
func reportExporter(names func(code string) string) dashboard.Exporter {
	return func(s dashboard.State) (dashboard.Download, error) {
		v := dashboard.Render(s)
		title := fmt.Sprintf("Censo 2018 - %s (%s)", names(s.Code), s.Code)
		data, err := renderReport(title, v)
		if err != nil {
			return dashboard.Download{}, err
		}
		if _, err := verifyReport(data); err != nil {
			return dashboard.Download{}, fmt.Errorf("verify report: %w", err)
		}
		return dashboard.Download{
			Filename:    dashboard.Filename(s.Code, "pdf"),
			ContentType: "application/pdf",
			Body:        data,
		}, nil
	}
}

func fillText(c draw.Canvas, txt string, size vg.Length, x, y vg.Length, clr color.Color) {
	sty := draw.TextStyle{
		Color:   clr,
		Font:    plot.DefaultFont,
		Handler: plot.DefaultTextHandler,
	}
	sty.Font.Size = size
	c.FillText(sty, vg.Point{X: x, Y: y}, txt)
}

func strokeHLine(c draw.Canvas, x0, x1, y vg.Length, clr color.Color) {
	c.StrokeLine2(draw.LineStyle{
		Color: clr,
		Width: vg.Points(0.5),
	}, x0, y, x1, y)
}
