// Package report 把一轮评估渲染成离线 HTML 图表，便于人工复盘。
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"quorum/internal/decision"
	"quorum/internal/indicator"
	"quorum/internal/market"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorBull          = "#34d399"
	colorBear          = "#f87171"
	colorBollMid       = "#fbbf24"
	colorBollBand      = "#3b82f6"

	chartWidthPx  = 1600
	klineHeightPx = 600
	volumeHeight  = 260
)

// Input 渲染一张复盘图所需的数据。
type Input struct {
	Symbol   string
	Interval string
	Candles  []market.Candle
	Set      *indicator.Set
	Decision decision.Decision
}

// Renderer 把图表写到 outDir 下。
type Renderer struct {
	outDir string
}

func NewRenderer(outDir string) (*Renderer, error) {
	if outDir == "" {
		outDir = "reports"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	return &Renderer{outDir: outDir}, nil
}

// Render 生成 HTML 文件并返回路径。
func (r *Renderer) Render(in Input) (string, error) {
	if in.Symbol == "" {
		return "", fmt.Errorf("symbol 不能为空")
	}
	if len(in.Candles) == 0 {
		return "", fmt.Errorf("%s 没有可渲染的 K 线", in.Symbol)
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(buildKline(in), buildVolume(in))

	name := fmt.Sprintf("%s_%s_%s.html",
		strings.ToLower(strings.ReplaceAll(in.Symbol, "/", "")),
		strings.ToLower(in.Interval),
		time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(r.outDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return "", err
	}
	return path, nil
}

func buildKline(in Input) *charts.Kline {
	minPrice, maxPrice := priceBounds(in.Candles)
	padding := (maxPrice - minPrice) * 0.05
	if padding <= 0 {
		padding = math.Max(1, math.Abs(maxPrice)*0.01)
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", klineHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         fmt.Sprintf("%s %s", strings.ToUpper(in.Symbol), in.Interval),
			Subtitle:      decisionSubtitle(in.Decision),
			Left:          "left",
			Top:           "10",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			Min:       round(minPrice-padding, 4),
			Max:       round(maxPrice+padding, 4),
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}),
	)

	xAxis := buildXAxis(in.Candles)
	data := make([]opts.KlineData, 0, len(in.Candles))
	for _, c := range in.Candles {
		data = append(data, opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}})
	}
	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", data)

	if in.Set != nil {
		kline.Overlap(buildBollingerLine(xAxis, in.Set))
	}
	return kline
}

func buildBollingerLine(xAxis []string, set *indicator.Set) *charts.Line {
	line := charts.NewLine()
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("BOLL Mid", toLineData(set.BollMiddle, len(xAxis)),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorBollMid, Width: 2}))
	line.AddSeries("BOLL Upper", toLineData(set.BollUpper, len(xAxis)),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorBollBand, Width: 1}))
	line.AddSeries("BOLL Lower", toLineData(set.BollLower, len(xAxis)),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorBollBand, Width: 1}))
	return line
}

func buildVolume(in Input) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", volumeHeight),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Volume", Left: "left", TitleStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			SplitNumber: 6,
			AxisLabel:   &opts.AxisLabel{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.15)}},
		}),
	)
	vols := make([]opts.BarData, len(in.Candles))
	for i, c := range in.Candles {
		color := colorBear
		if c.Close >= c.Open {
			color = colorBull
		}
		vols[i] = opts.BarData{
			Value:     c.Volume,
			ItemStyle: &opts.ItemStyle{Color: color, Opacity: opts.Float(0.6)},
		}
	}
	bar.SetXAxis(buildXAxis(in.Candles))
	bar.AddSeries("Volume", vols)
	return bar
}

func decisionSubtitle(d decision.Decision) string {
	if d.Signal == "" {
		return ""
	}
	parts := []string{fmt.Sprintf("裁决 %s | 置信度 %d | 分歧度 %d", d.Signal, d.Confidence, d.ConflictScore)}
	if len(d.Contributing) > 0 {
		parts = append(parts, "支持: "+strings.Join(d.Contributing, ","))
	}
	if len(d.Dissenting) > 0 {
		parts = append(parts, "反对: "+strings.Join(d.Dissenting, ","))
	}
	return strings.Join(parts, " | ")
}

func buildXAxis(candles []market.Candle) []string {
	x := make([]string, len(candles))
	for i, c := range candles {
		x[i] = time.UnixMilli(c.CloseTime).UTC().Format("01-02 15:04")
	}
	return x
}

func toLineData(series []float64, n int) []opts.LineData {
	data := make([]opts.LineData, n)
	for i := 0; i < n; i++ {
		if i < len(series) && !math.IsNaN(series[i]) {
			data[i] = opts.LineData{Value: round(series[i], 6)}
		} else {
			data[i] = opts.LineData{Value: "-"}
		}
	}
	return data
}

func priceBounds(candles []market.Candle) (float64, float64) {
	minP, maxP := math.Inf(1), math.Inf(-1)
	for _, c := range candles {
		minP = math.Min(minP, c.Low)
		maxP = math.Max(maxP, c.High)
	}
	return minP, maxP
}

func round(v float64, places int) float64 {
	factor := math.Pow10(places)
	return math.Round(v*factor) / factor
}
