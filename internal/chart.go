package pmugraph

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	humanize "github.com/dustin/go-humanize"
	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
)

// CurveData is what a chart knows about one event
type CurveData struct {
	Name    string
	Color   Color
	Visible bool
	Xs, Ys  []float64
}

// ChartView draws the events of one event type. A bounded chart shows the
// scrolling window, an unbounded one the full history.
type ChartView struct {
	eventType EventType
	bounded   bool
	curves    []*CurveData
	byName    map[string]*CurveData
}

func NewChartView(et EventType, bounded bool) *ChartView {
	return &ChartView{
		eventType: et,
		bounded:   bounded,
		byName:    make(map[string]*CurveData),
	}
}

func (c *ChartView) EventType() EventType { return c.eventType }
func (c *ChartView) Bounded() bool        { return c.bounded }

// AddCurve registers an event with its initial style
func (c *ChartView) AddCurve(name string, s EventSettings) {
	if _, ok := c.byName[name]; ok {
		return
	}
	curve := &CurveData{Name: name, Color: s.Color, Visible: s.Plot}
	c.curves = append(c.curves, curve)
	c.byName[name] = curve
}

// Curve returns a copy of the named curve
func (c *ChartView) Curve(name string) (CurveData, bool) {
	curve, ok := c.byName[name]
	if !ok {
		return CurveData{}, false
	}
	return *curve, true
}

// Update pulls fresh samples for every curve, hidden ones included
func (c *ChartView) Update(s *Store) {
	for _, curve := range c.curves {
		var xs, ys []float64
		var ok bool
		if c.bounded {
			xs, ys, ok = s.Window(curve.Name)
		} else {
			xs, ys, ok = s.History(curve.Name)
		}
		if ok {
			curve.Xs, curve.Ys = xs, ys
		}
	}
}

// ApplySettings restyles every curve from the tree, leaving samples alone
func (c *ChartView) ApplySettings(t *SettingsTree) {
	for _, curve := range c.curves {
		if s, ok := t.Get(curve.Name); ok {
			curve.Color = s.Color
			curve.Visible = s.Plot
		}
	}
}

// YRange returns the y axis bounds. A declared event type range is fixed,
// otherwise the bounds follow the visible data.
func (c *ChartView) YRange() (lo, hi float64, fixed bool) {
	if lo, hi, ok := c.eventType.Range(); ok && hi > lo {
		return lo, hi, true
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, curve := range c.curves {
		if !curve.Visible {
			continue
		}
		for _, v := range curve.Ys {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1, false
	}
	lo = min(lo, 0)
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi, false
}

// TimeSpan returns the first and last x of the visible curves
func (c *ChartView) TimeSpan() (from, to float64) {
	from, to = math.Inf(1), math.Inf(-1)
	for _, curve := range c.curves {
		if !curve.Visible || len(curve.Xs) == 0 {
			continue
		}
		from = min(from, curve.Xs[0])
		to = max(to, curve.Xs[len(curve.Xs)-1])
	}
	if math.IsInf(from, 1) {
		return 0, 0
	}
	return from, to
}

// Title is the left axis label, the event type name and its unit
func (c *ChartView) Title() string {
	if unit := c.eventType.Unit(); unit != "" {
		return fmt.Sprintf("%s (%s)", c.eventType.Name(), unit)
	}
	return c.eventType.Name()
}

// Render draws the visible curves into a width x height block of text
func (c *ChartView) Render(width, height int) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	unit := c.eventType.Unit()
	lo, hi, fixed := c.YRange()

	top := fmt.Sprintf("%s  max %s", c.Title(), formatValue(hi, unit))
	if fixed {
		top += " (fixed)"
	}
	from, to := c.TimeSpan()
	bottom := fmt.Sprintf("min %s  time %.1fs → %.1fs", formatValue(lo, unit), from, to)

	plotHeight := height - 2
	if width < 4 || plotHeight < 2 {
		return labelStyle.Render(truncate(top, width))
	}

	var data [][]float64
	var colors []ui.Color
	for _, curve := range c.curves {
		if !curve.Visible || len(curve.Ys) < 2 {
			continue
		}
		ys := resample(curve.Ys, width)
		if len(ys) < 2 {
			continue
		}
		shifted := make([]float64, len(ys))
		for i, v := range ys {
			shifted[i] = clamp(v, lo, hi) - lo
		}
		data = append(data, shifted)
		colors = append(colors, ui.Color(curve.Color.ANSI256()))
	}

	var body string
	if len(data) == 0 {
		body = lipgloss.Place(width, plotHeight, lipgloss.Center, lipgloss.Center,
			labelStyle.Render("Waiting for data..."))
	} else {
		body = renderPlot(data, colors, hi-lo, width, plotHeight)
	}

	return labelStyle.Render(truncate(top, width)) + "\n" +
		body + "\n" +
		labelStyle.Render(truncate(bottom, width))
}

// renderPlot draws a braille line chart off-screen with termui and converts
// the buffer to styled text
func renderPlot(data [][]float64, colors []ui.Color, maxVal float64, width, height int) string {
	p := widgets.NewPlot()
	p.Border = false
	p.ShowAxes = false
	p.Marker = widgets.MarkerBraille
	p.PlotType = widgets.LineChart
	p.HorizontalScale = 1
	p.Data = data
	p.LineColors = colors
	p.MaxVal = maxVal
	// Inner is the rectangle shrunk by one cell on every side
	p.SetRect(-1, -1, width+1, height+1)

	buf := ui.NewBuffer(p.Inner)
	p.Draw(buf)
	return bufferString(buf, p.Inner)
}

func bufferString(buf *ui.Buffer, r image.Rectangle) string {
	var b strings.Builder
	for y := r.Min.Y; y < r.Max.Y; y++ {
		var run strings.Builder
		runColor := ui.ColorClear
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runColor == ui.ColorClear {
				b.WriteString(run.String())
			} else {
				b.WriteString(lipgloss.NewStyle().
					Foreground(lipgloss.Color(strconv.Itoa(int(runColor)))).
					Render(run.String()))
			}
			run.Reset()
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			cell := buf.GetCell(image.Pt(x, y))
			ch := cell.Rune
			if ch == 0 {
				ch = ' '
			}
			fg := cell.Style.Fg
			if ch == ' ' {
				fg = runColor
			}
			if fg != runColor {
				flush()
				runColor = fg
			}
			run.WriteRune(ch)
		}
		flush()
		if y < r.Max.Y-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// resample reduces ys to at most n points, keeping the largest value of
// every bucket so spikes stay visible
func resample(ys []float64, n int) []float64 {
	if n <= 0 || len(ys) <= n {
		return ys
	}
	out := make([]float64, n)
	for i := range out {
		start := i * len(ys) / n
		end := (i + 1) * len(ys) / n
		m := ys[start]
		for _, v := range ys[start+1 : end] {
			m = max(m, v)
		}
		out[i] = m
	}
	return out
}

func formatValue(v float64, unit string) string {
	return humanize.SIWithDigits(v, 2, unit)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
