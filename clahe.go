package aavideo

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/gift"
)

// CLAHE parameters. The 8x8 tile grid and clip limit of 2.0 follow the
// common OpenCV defaults.
const (
	claheTiles     = 8
	claheClipLimit = 2.0
)

// claheFilter equalizes the luma channel with contrast-limited adaptive
// histogram equalization and recombines it with the original chroma. It
// implements gift.Filter so it can sit in the same chain as gift.Gamma.
type claheFilter struct {
	tiles     int
	clipLimit float64
}

var _ gift.Filter = (*claheFilter)(nil)

func newCLAHE() *claheFilter {
	return &claheFilter{tiles: claheTiles, clipLimit: claheClipLimit}
}

func (f *claheFilter) Bounds(srcBounds image.Rectangle) image.Rectangle {
	return image.Rect(0, 0, srcBounds.Dx(), srcBounds.Dy())
}

func (f *claheFilter) Draw(dst draw.Image, src image.Image, options *gift.Options) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}

	ys := make([]uint8, w*h)
	cbs := make([]uint8, w*h)
	crs := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := y*w + x
			ys[i], cbs[i], crs[i] = color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
		}
	}

	eq := f.equalize(ys, w, h)

	db := dst.Bounds()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			r, g, bl := color.YCbCrToRGB(eq[i], cbs[i], crs[i])
			dst.Set(db.Min.X+x, db.Min.Y+y, color.RGBA{R: r, G: g, B: bl, A: 0xff})
		}
	}
}

// equalize returns the CLAHE-mapped luma plane. The plane is split into an
// even grid of non-empty tiles, each tile builds a clipped histogram and
// cumulative mapping, and every pixel bilinearly blends the mappings of its
// four nearest tile centers.
func (f *claheFilter) equalize(lum []uint8, w, h int) []uint8 {
	tx := min(f.tiles, w)
	ty := min(f.tiles, h)

	xs, xc := tileGrid(w, tx)
	ys, yc := tileGrid(h, ty)

	maps := make([][256]uint8, tx*ty)
	for j := 0; j < ty; j++ {
		for i := 0; i < tx; i++ {
			maps[j*tx+i] = f.tileMapping(lum, w, xs[i], ys[j], xs[i+1], ys[j+1])
		}
	}

	out := make([]uint8, len(lum))
	for y := 0; y < h; y++ {
		j0, j1, wy := blendAxis(float64(y)+0.5, yc)

		for x := 0; x < w; x++ {
			i0, i1, wx := blendAxis(float64(x)+0.5, xc)

			v := lum[y*w+x]
			top := float64(maps[j0*tx+i0][v])*(1-wx) + float64(maps[j0*tx+i1][v])*wx
			bottom := float64(maps[j1*tx+i0][v])*(1-wx) + float64(maps[j1*tx+i1][v])*wx
			out[y*w+x] = uint8(clampf(top*(1-wy)+bottom*wy+0.5, 0, 255))
		}
	}

	return out
}

// tileGrid splits size into n tiles. edges has n+1 entries, tile k spans
// [edges[k], edges[k+1]); centers are the tile midpoints. Every tile is
// non-empty as long as n <= size.
func tileGrid(size, n int) (edges []int, centers []float64) {
	edges = make([]int, n+1)
	for k := range edges {
		edges[k] = k * size / n
	}

	centers = make([]float64, n)
	for k := range centers {
		centers[k] = float64(edges[k]+edges[k+1]) / 2
	}

	return edges, centers
}

// blendAxis returns the two tiles around p and the weight of the second.
// Positions before the first or after the last center use a single tile.
func blendAxis(p float64, centers []float64) (int, int, float64) {
	k := 0
	for k+1 < len(centers) && centers[k+1] <= p {
		k++
	}

	if k+1 == len(centers) {
		return k, k, 0
	}

	return k, k + 1, clampf((p-centers[k])/(centers[k+1]-centers[k]), 0, 1)
}

// tileMapping builds the clipped cumulative mapping of one tile. Clipping
// and redistribution work on fractional counts, so tiles of different sizes
// with the same content map identically.
func (f *claheFilter) tileMapping(lum []uint8, stride, x0, y0, x1, y1 int) [256]uint8 {
	var hist [256]float64
	n := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[lum[y*stride+x]]++
			n++
		}
	}

	var mapping [256]uint8
	if n == 0 {
		for v := range mapping {
			mapping[v] = uint8(v)
		}
		return mapping
	}

	limit := f.clipLimit * float64(n) / 256

	excess := 0.0
	for v := range hist {
		if hist[v] > limit {
			excess += hist[v] - limit
			hist[v] = limit
		}
	}

	bonus := excess / 256
	sum := 0.0
	for v := range hist {
		sum += hist[v] + bonus
		mapping[v] = uint8(clampf(sum*255/float64(n)+0.5, 0, 255))
	}

	return mapping
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
