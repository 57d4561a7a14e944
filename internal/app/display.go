package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kev-in-ta/CARISPAWProject/internal/imu"
)

const (
	DefaultPlotWidth  = 800
	DefaultPlotHeight = 480
)

var (
	plotBackground = color.RGBA{0x10, 0x12, 0x16, 0xff}
	plotGrid       = color.RGBA{0x30, 0x34, 0x3c, 0xff}
	plotText       = color.RGBA{0xd0, 0xd4, 0xdc, 0xff}
	traceColors    = [3]color.RGBA{
		{0xe0, 0x4c, 0x4c, 0xff},
		{0x4c, 0xc0, 0x5c, 0xff},
		{0x4c, 0x8c, 0xe0, 0xff},
	}
)

// panel is one strip of the display: three traces sharing a y axis.
type panel struct {
	title  string
	labels [3]string
	value  func(s imu.Sample, i int) float64
}

var windowPanels = []panel{
	{
		title:  "accelerometer",
		labels: [3]string{"x", "y", "z"},
		value:  func(s imu.Sample, i int) float64 { return s.Accel[i] },
	},
	{
		title:  "gyroscope (rad/s)",
		labels: [3]string{"x", "y", "z"},
		value:  func(s imu.Sample, i int) float64 { return s.Gyro[i] },
	},
	{
		title:  "attitude (deg)",
		labels: [3]string{"heading", "pitch", "roll"},
		value: func(s imu.Sample, i int) float64 {
			switch i {
			case 0:
				return s.Heading
			case 1:
				return s.Pitch
			default:
				return s.Roll
			}
		},
	},
}

// RenderWindow draws the six IMU channels and the estimated attitude of a
// display window snapshot as three stacked trace strips.
func RenderWindow(title string, samples []imu.Sample, width, height int) *image.RGBA {
	if width <= 0 {
		width = DefaultPlotWidth
	}
	if height <= 0 {
		height = DefaultPlotHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{plotBackground}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{plotText},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(4, 13)
	drawer.DrawString(fmt.Sprintf("%s  %d samples", title, len(samples)))

	top := 18
	strip := (height - top) / len(windowPanels)
	for i, p := range windowPanels {
		r := image.Rect(0, top+i*strip, width, top+(i+1)*strip)
		drawPanel(img, drawer, r, p, samples)
	}
	return img
}

// WriteWindowPNG renders and PNG-encodes a window snapshot.
func WriteWindowPNG(w io.Writer, title string, samples []imu.Sample, width, height int) error {
	return png.Encode(w, RenderWindow(title, samples, width, height))
}

func drawPanel(img *image.RGBA, drawer *font.Drawer, r image.Rectangle, p panel, samples []imu.Sample) {
	plot := image.Rect(r.Min.X+48, r.Min.Y+16, r.Max.X-4, r.Max.Y-4)

	// Frame
	for x := plot.Min.X; x < plot.Max.X; x++ {
		img.SetRGBA(x, plot.Min.Y, plotGrid)
		img.SetRGBA(x, plot.Max.Y-1, plotGrid)
	}
	for y := plot.Min.Y; y < plot.Max.Y; y++ {
		img.SetRGBA(plot.Min.X, y, plotGrid)
		img.SetRGBA(plot.Max.X-1, y, plotGrid)
	}

	drawer.Src = &image.Uniform{plotText}
	drawer.Dot = fixed.P(r.Min.X+4, r.Min.Y+13)
	drawer.DrawString(p.title)
	for i, label := range p.labels {
		drawer.Src = &image.Uniform{traceColors[i]}
		drawer.DrawString("  " + label)
	}

	if len(samples) < 2 || plot.Dx() < 2 || plot.Dy() < 2 {
		return
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		for i := 0; i < 3; i++ {
			v := p.value(s, i)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) {
		return
	}
	if hi-lo < 1e-9 {
		lo, hi = lo-1, hi+1
	}

	drawer.Src = &image.Uniform{plotText}
	drawer.Dot = fixed.P(r.Min.X+2, plot.Min.Y+10)
	drawer.DrawString(axisLabel(hi))
	drawer.Dot = fixed.P(r.Min.X+2, plot.Max.Y-2)
	drawer.DrawString(axisLabel(lo))

	xOf := func(n int) int {
		return plot.Min.X + 1 + n*(plot.Dx()-3)/(len(samples)-1)
	}
	yOf := func(v float64) int {
		return plot.Max.Y - 2 - int((v-lo)/(hi-lo)*float64(plot.Dy()-3))
	}

	for i := 0; i < 3; i++ {
		c := traceColors[i]
		px, py := xOf(0), yOf(p.value(samples[0], i))
		for n := 1; n < len(samples); n++ {
			v := p.value(samples[n], i)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			x, y := xOf(n), yOf(v)
			drawLine(img, px, py, x, y, c)
			px, py = x, y
		}
	}
}

func axisLabel(v float64) string {
	if math.Abs(v) >= 100 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// drawLine is Bresenham's line algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
