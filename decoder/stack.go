package decoder

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	_ "golang.org/x/image/tiff"

	"github.com/richinsley/volrender/gpu"
	"github.com/richinsley/volrender/volume"
)

// ImageExtensions are the slice file types of an image stack.
var ImageExtensions = []string{".tif", ".tiff", ".jpg", ".jpeg", ".png"}

// DecodeImageStack reads the slices of req as 8-bit luminance. Every slice
// must have the size of the first.
func (Files) DecodeImageStack(req ImageStackRequest) (*volume.Voxels, error) {
	files, err := listSlices(req.Path, ImageExtensions...)
	if err != nil {
		return nil, &DecodeError{Path: req.Path, Err: err}
	}
	if len(files) == 0 {
		return nil, &DecodeError{Path: req.Path, Err: errors.New("no image slices found")}
	}
	lo, hi, err := window(len(files), req.StartSlice, req.MaxSlices)
	if err != nil {
		return nil, &DecodeError{Path: req.Path, Err: err}
	}
	files = files[lo:hi]

	v := &volume.Voxels{
		Depth:   len(files),
		Format:  gpu.R8,
		Spacing: [3]float32{req.PixelWidth, req.PixelHeight, req.SliceThickness},
	}
	for z, path := range files {
		img, err := readImage(path)
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		b := img.Bounds()
		if z == 0 {
			v.Width, v.Height = b.Dx(), b.Dy()
			v.Data = make([]byte, 0, v.Len())
		} else if b.Dx() != v.Width || b.Dy() != v.Height {
			return nil, &DecodeError{Path: path, Err: fmt.Errorf("slice is %dx%d, stack is %dx%d", b.Dx(), b.Dy(), v.Width, v.Height)}
		}
		v.Data = appendGray(v.Data, img)
	}
	log.Printf("Decoder: read %d slices of %dx%d from %s", v.Depth, v.Width, v.Height, req.Path)
	return v, nil
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func appendGray(dst []byte, img image.Image) []byte {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := g.PixOffset(b.Min.X, y)
			dst = append(dst, g.Pix[off:off+b.Dx()]...)
		}
		return dst
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst = append(dst, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
		}
	}
	return dst
}
