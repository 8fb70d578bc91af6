package viz

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/doxa/internal/pose"
)

// Braille cells are 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is Width x Height cells, or Width*2 x Height*4 dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) cell(x, y int) (row, col int, bit rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, rune(pixelMap[y%4][x%2]), true
}

// Set turns on the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if row, col, bit, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= bit
	}
}

func (c *Canvas) Unset(x, y int) {
	if row, col, bit, ok := c.cell(x, y); ok {
		c.Grid[row][col] &^= bit
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, bit, ok := c.cell(x, y)
	return ok && c.Grid[row][col]&bit != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine is Bresenham's line.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// FieldView draws on a canvas in field millimetres, origin at the centre and +y up.
type FieldView struct {
	c    *Canvas
	half float64
}

func NewFieldView(c *Canvas, halfWidth float64) *FieldView {
	return &FieldView{c: c, half: halfWidth}
}

func (f *FieldView) Canvas() *Canvas { return f.c }

// Project maps a field point to canvas dots.
func (f *FieldView) Project(x, y float64) (int, int) {
	w := float64(f.c.Width*2 - 1)
	h := float64(f.c.Height*4 - 1)
	px := (x + f.half) / (2 * f.half) * w
	py := (f.half - y) / (2 * f.half) * h
	return int(math.Round(px)), int(math.Round(py))
}

func (f *FieldView) line(a, b r2.Vec) {
	x0, y0 := f.Project(a.X, a.Y)
	x1, y1 := f.Project(b.X, b.Y)
	f.c.DrawLine(x0, y0, x1, y1)
}

// DrawTiles dots the tile seams and outlines the field.
func (f *FieldView) DrawTiles(tile float64) {
	for v := -f.half + tile; v < f.half; v += tile {
		for u := -f.half; u <= f.half; u += tile / 6 {
			x, y := f.Project(v, u)
			f.c.Set(x, y)
			x, y = f.Project(u, v)
			f.c.Set(x, y)
		}
	}
	h := f.half
	corners := []r2.Vec{{X: -h, Y: -h}, {X: h, Y: -h}, {X: h, Y: h}, {X: -h, Y: h}}
	for i := range corners {
		f.line(corners[i], corners[(i+1)%len(corners)])
	}
}

// DrawPath joins consecutive points.
func (f *FieldView) DrawPath(points []r2.Vec) {
	for i := 1; i < len(points); i++ {
		f.line(points[i-1], points[i])
	}
}

// DrawRobot outlines a square robot of the given half-size with a nose line along its
// heading.
func (f *FieldView) DrawRobot(p pose.Pose, half float64) {
	local := []r2.Vec{{X: -half, Y: -half}, {X: half, Y: -half}, {X: half, Y: half}, {X: -half, Y: half}}
	corners := make([]r2.Vec, len(local))
	for i, v := range local {
		corners[i] = r2.Add(p.Offset, pose.Rotate(v, p.Heading))
	}
	for i := range corners {
		f.line(corners[i], corners[(i+1)%len(corners)])
	}
	f.line(p.Offset, r2.Add(p.Offset, r2.Scale(half*1.5, p.Forward())))
}
