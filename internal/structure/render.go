package structure

import (
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// ErrEmptyDrawing is returned when the markup contains nothing to draw.
var ErrEmptyDrawing = errors.New("structure: drawing has no renderable shapes")

const (
	// oversample is the raster resolution per output pixel along each axis.
	oversample = 4
	// curveSteps is how many segments approximate one curve.
	curveSteps = 8
	// minStroke keeps hairlines visible after downsampling, in raster pixels.
	minStroke = 2.0
	threshold = uint8(40)
)

type point struct {
	x, y float64
}

type shape struct {
	subpaths [][]point
	stroke   bool
	width    float64
}

type label struct {
	x, y float64
	text string
}

type drawing struct {
	minX, minY    float64
	width, height float64
	shapes        []shape
	labels        []label
}

// Render draws the SVG markup as half-block art of cols x rows terminal
// cells. Only paths, lines and text are drawn; backgrounds are ignored.
func Render(markup string, cols, rows int) (string, error) {
	if cols <= 0 || rows <= 0 {
		return "", fmt.Errorf("structure: invalid size %dx%d", cols, rows)
	}

	d, err := parse(markup)
	if err != nil {
		return "", err
	}

	src := d.rasterize(cols*oversample, rows*2*oversample)
	scaled := scaleDown(src, cols, rows*2)
	return imageToHalfBlocks(scaled, cols, rows), nil
}

func parse(markup string) (*drawing, error) {
	dec := xml.NewDecoder(strings.NewReader(markup))
	dec.Strict = false
	// RDKit declares iso-8859-1 but only ever emits ASCII.
	dec.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) {
		return in, nil
	}

	d := &drawing{}
	var (
		sawRoot bool
		text    *label
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing svg: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			attrs := attrMap(t.Attr)
			switch t.Name.Local {
			case "svg":
				if !sawRoot {
					d.setViewport(attrs)
					sawRoot = true
				}
			case "path":
				if s, ok := pathShape(attrs); ok {
					d.shapes = append(d.shapes, s)
				}
			case "line":
				s := shape{
					subpaths: [][]point{{
						{number(attrs["x1"]), number(attrs["y1"])},
						{number(attrs["x2"]), number(attrs["y2"])},
					}},
					stroke: true,
					width:  strokeWidth(attrs),
				}
				d.shapes = append(d.shapes, s)
			case "text":
				text = &label{x: number(attrs["x"]), y: number(attrs["y"])}
			}
		case xml.CharData:
			if text != nil {
				text.text += string(t)
			}
		case xml.EndElement:
			if t.Name.Local == "text" && text != nil {
				if s := strings.TrimSpace(text.text); s != "" {
					text.text = s
					d.labels = append(d.labels, *text)
				}
				text = nil
			}
		}
	}

	if !sawRoot {
		return nil, errors.New("parsing svg: no svg element")
	}
	if len(d.shapes) == 0 && len(d.labels) == 0 {
		return nil, ErrEmptyDrawing
	}
	return d, nil
}

func (d *drawing) setViewport(attrs map[string]string) {
	d.width, d.height = 300, 300

	if w := number(attrs["width"]); w > 0 {
		d.width = w
	}
	if h := number(attrs["height"]); h > 0 {
		d.height = h
	}

	fields := strings.FieldsFunc(attrs["viewbox"], func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	if len(fields) == 4 {
		vals := make([]float64, 4)
		for i, f := range fields {
			vals[i], _ = strconv.ParseFloat(f, 64)
		}
		if vals[2] > 0 && vals[3] > 0 {
			d.minX, d.minY, d.width, d.height = vals[0], vals[1], vals[2], vals[3]
		}
	}
}

func (d *drawing) rasterize(w, h int) *image.Alpha {
	img := image.NewAlpha(image.Rect(0, 0, w, h))

	scale := math.Min(float64(w)/d.width, float64(h)/d.height)
	offX := (float64(w) - d.width*scale) / 2
	offY := (float64(h) - d.height*scale) / 2
	toRaster := func(p point) point {
		return point{offX + (p.x-d.minX)*scale, offY + (p.y-d.minY)*scale}
	}

	z := vector.NewRasterizer(w, h)
	for _, s := range d.shapes {
		if s.stroke {
			sw := math.Max(s.width*scale, minStroke)
			for _, sp := range s.subpaths {
				for i := 1; i < len(sp); i++ {
					// One segment per pass: overlapping quads of opposite
					// winding would otherwise cancel out.
					z.Reset(w, h)
					strokeSegment(z, toRaster(sp[i-1]), toRaster(sp[i]), sw, w, h)
					z.Draw(img, img.Bounds(), image.Opaque, image.Point{})
				}
			}
			continue
		}

		z.Reset(w, h)
		for _, sp := range s.subpaths {
			p := clamp(toRaster(sp[0]), w, h)
			z.MoveTo(float32(p.x), float32(p.y))
			for _, q := range sp[1:] {
				p = clamp(toRaster(q), w, h)
				z.LineTo(float32(p.x), float32(p.y))
			}
			z.ClosePath()
		}
		z.Draw(img, img.Bounds(), image.Opaque, image.Point{})
	}

	if len(d.labels) > 0 {
		drawer := &font.Drawer{Dst: img, Src: image.Opaque, Face: basicfont.Face7x13}
		for _, l := range d.labels {
			p := toRaster(point{l.x, l.y})
			drawer.Dot = fixed.P(int(p.x), int(p.y))
			drawer.DrawString(l.text)
		}
	}

	return img
}

func strokeSegment(z *vector.Rasterizer, a, b point, width float64, w, h int) {
	dx, dy := b.x-a.x, b.y-a.y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2

	corners := []point{
		{a.x + nx, a.y + ny},
		{b.x + nx, b.y + ny},
		{b.x - nx, b.y - ny},
		{a.x - nx, a.y - ny},
	}
	for i, c := range corners {
		c = clamp(c, w, h)
		if i == 0 {
			z.MoveTo(float32(c.x), float32(c.y))
		} else {
			z.LineTo(float32(c.x), float32(c.y))
		}
	}
	z.ClosePath()
}

func clamp(p point, w, h int) point {
	return point{
		math.Max(0, math.Min(p.x, float64(w))),
		math.Max(0, math.Min(p.y, float64(h))),
	}
}

func pathShape(attrs map[string]string) (shape, bool) {
	subpaths := parsePath(attrs["d"])
	if len(subpaths) == 0 {
		return shape{}, false
	}

	style := styleMap(attrs["style"])
	fill := firstNonEmpty(style["fill"], attrs["fill"])
	stroke := firstNonEmpty(style["stroke"], attrs["stroke"])

	if fill == "none" {
		if stroke == "none" {
			return shape{}, false
		}
		return shape{subpaths: subpaths, stroke: true, width: strokeWidth(attrs)}, true
	}
	return shape{subpaths: subpaths}, true
}

func strokeWidth(attrs map[string]string) float64 {
	style := styleMap(attrs["style"])
	if w := number(firstNonEmpty(style["stroke-width"], attrs["stroke-width"])); w > 0 {
		return w
	}
	return 1
}

var pathToken = regexp.MustCompile(`[MmLlHhVvCcSsQqTtAaZz]|[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)

// parsePath flattens SVG path data into polylines. Smooth curves and arcs
// are skipped.
func parsePath(data string) [][]point {
	toks := pathToken.FindAllString(data, -1)

	var (
		subpaths   [][]point
		cur        []point
		pos, start point
		cmd        byte
		i          int
	)

	isCommand := func(tok string) bool {
		c := tok[0]
		return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
	}
	next := func() (float64, bool) {
		if i >= len(toks) || isCommand(toks[i]) {
			return 0, false
		}
		v, err := strconv.ParseFloat(toks[i], 64)
		i++
		return v, err == nil
	}
	pair := func() (point, bool) {
		x, ok := next()
		if !ok {
			return point{}, false
		}
		y, ok := next()
		return point{x, y}, ok
	}
	flush := func() {
		if len(cur) > 1 {
			subpaths = append(subpaths, cur)
		}
		cur = nil
	}
	lineTo := func(p point) {
		if len(cur) == 0 {
			cur = []point{pos}
		}
		cur = append(cur, p)
		pos = p
	}

	for i < len(toks) {
		if isCommand(toks[i]) {
			cmd = toks[i][0]
			i++
		} else if cmd == 0 {
			i++
			continue
		}

		rel := cmd >= 'a'
		var off point
		if rel {
			off = pos
		}

		switch cmd | 0x20 {
		case 'm':
			p, ok := pair()
			if !ok {
				continue
			}
			flush()
			pos = point{off.x + p.x, off.y + p.y}
			start = pos
			cur = []point{pos}
			// Further coordinate pairs are implicit line-tos.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'l':
			p, ok := pair()
			if !ok {
				continue
			}
			lineTo(point{off.x + p.x, off.y + p.y})
		case 'h':
			x, ok := next()
			if !ok {
				continue
			}
			lineTo(point{off.x + x, pos.y})
		case 'v':
			y, ok := next()
			if !ok {
				continue
			}
			lineTo(point{pos.x, off.y + y})
		case 'q':
			c1, ok1 := pair()
			p, ok2 := pair()
			if !ok1 || !ok2 {
				continue
			}
			p0 := pos
			c1 = point{off.x + c1.x, off.y + c1.y}
			p = point{off.x + p.x, off.y + p.y}
			for k := 1; k <= curveSteps; k++ {
				t := float64(k) / curveSteps
				u := 1 - t
				lineTo(point{
					u*u*p0.x + 2*u*t*c1.x + t*t*p.x,
					u*u*p0.y + 2*u*t*c1.y + t*t*p.y,
				})
			}
		case 'c':
			c1, ok1 := pair()
			c2, ok2 := pair()
			p, ok3 := pair()
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			p0 := pos
			c1 = point{off.x + c1.x, off.y + c1.y}
			c2 = point{off.x + c2.x, off.y + c2.y}
			p = point{off.x + p.x, off.y + p.y}
			for k := 1; k <= curveSteps; k++ {
				t := float64(k) / curveSteps
				u := 1 - t
				lineTo(point{
					u*u*u*p0.x + 3*u*u*t*c1.x + 3*u*t*t*c2.x + t*t*t*p.x,
					u*u*u*p0.y + 3*u*u*t*c1.y + 3*u*t*t*c2.y + t*t*t*p.y,
				})
			}
		case 'z':
			if len(cur) > 0 {
				cur = append(cur, start)
			}
			flush()
			pos = start
			cmd = 0
		default:
			cmd = 0
		}
	}
	flush()

	return subpaths
}

func attrMap(attrs []xml.Attr) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[strings.ToLower(a.Name.Local)] = a.Value
	}
	return out
}

func styleMap(style string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

func number(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// scaleDown scales an alpha mask using area averaging.
func scaleDown(src *image.Alpha, dstWidth, dstHeight int) *image.Alpha {
	srcBounds := src.Bounds()
	srcWidth := srcBounds.Max.X
	srcHeight := srcBounds.Max.Y

	dst := image.NewAlpha(image.Rect(0, 0, dstWidth, dstHeight))

	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for dy := 0; dy < dstHeight; dy++ {
		for dx := 0; dx < dstWidth; dx++ {
			sx1 := int(float64(dx) * xRatio)
			sy1 := int(float64(dy) * yRatio)
			sx2 := min(int(float64(dx+1)*xRatio), srcWidth)
			sy2 := min(int(float64(dy+1)*yRatio), srcHeight)

			var sum, count int
			for sy := sy1; sy < sy2; sy++ {
				for sx := sx1; sx < sx2; sx++ {
					sum += int(src.AlphaAt(sx, sy).A)
					count++
				}
			}
			if count > 0 {
				dst.SetAlpha(dx, dy, color.Alpha{A: uint8(sum / count)})
			}
		}
	}

	return dst
}

// imageToHalfBlocks maps pairs of vertical pixels onto ▀▄█ cells.
func imageToHalfBlocks(img *image.Alpha, cols, rows int) string {
	var b strings.Builder

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			top := coverage(img, col, row*2) > threshold
			bottom := coverage(img, col, row*2+1) > threshold

			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteRune(' ')
			}
		}
		if row < rows-1 {
			b.WriteRune('\n')
		}
	}

	return b.String()
}

func coverage(img *image.Alpha, x, y int) uint8 {
	if !(image.Point{x, y}.In(img.Bounds())) {
		return 0
	}
	return img.AlphaAt(x, y).A
}
