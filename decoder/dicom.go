package decoder

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/richinsley/volrender/gpu"
	"github.com/richinsley/volrender/volume"
)

// DICOMExtensions are the file types of a DICOM series.
var DICOMExtensions = []string{".dcm"}

// Intensity quantiles mapped to 0 and 255.
const (
	LowQuantile  = 0.005
	HighQuantile = 0.995
)

// modality maps stored pixel values to modality units, Hounsfield units for
// CT.
type modality struct {
	signed     bool
	bitsStored int
	slope      float64
	intercept  float64
}

// value sign-extends a two's complement stored value of bitsStored bits and
// applies the rescale.
func (m modality) value(stored int) float64 {
	if m.signed && m.bitsStored > 0 && m.bitsStored < 32 {
		stored &= 1<<m.bitsStored - 1
		if stored >= 1<<(m.bitsStored-1) {
			stored -= 1 << m.bitsStored
		}
	}
	return float64(stored)*m.slope + m.intercept
}

// dicomSlice is one frame of one file. samples stay nil until the frame is
// selected.
type dicomSlice struct {
	path      string
	frame     int
	instance  int
	width     int
	height    int
	samples   []float64
	spacing   [2]float64
	thickness float64
	modality  modality
}

// DecodeDICOMSeries orders the series by instance from the headers alone,
// keeps the requested window of slices, and decodes only their pixels. The
// values are windowed to 8 bits between the LowQuantile and HighQuantile of
// the kept slices.
func (Files) DecodeDICOMSeries(req DICOMRequest) (*volume.Voxels, error) {
	files, err := listSlices(req.Path, DICOMExtensions...)
	if err != nil {
		return nil, &DecodeError{Path: req.Path, Err: err}
	}
	if len(files) == 0 {
		return nil, &DecodeError{Path: req.Path, Err: errors.New("no DICOM files found")}
	}

	var slices []dicomSlice
	for _, path := range files {
		s, err := readDICOMHeader(path)
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		slices = append(slices, s...)
	}
	slices, err = selectDICOM(slices, req.StartSlice, req.MaxSlices)
	if err != nil {
		return nil, &DecodeError{Path: req.Path, Err: err}
	}
	if err := loadDICOMPixels(slices); err != nil {
		return nil, err
	}
	v, err := stackDICOM(slices)
	if err != nil {
		return nil, &DecodeError{Path: req.Path, Err: err}
	}
	log.Printf("Decoder: read %d DICOM slices of %dx%d from %s", v.Depth, v.Width, v.Height, req.Path)
	return v, nil
}

// readDICOMHeader returns one slice per frame of the file without reading
// the pixel data.
func readDICOMHeader(path string) ([]dicomSlice, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, err
	}

	base := dicomSlice{
		path:      path,
		spacing:   [2]float64{1, 1},
		thickness: 1,
		modality:  modality{slope: 1},
	}
	if n, ok := intValue(&ds, tag.InstanceNumber); ok {
		base.instance = n
	}
	if sp := floatValues(&ds, tag.PixelSpacing); len(sp) == 2 {
		// row spacing first, that is the y size of a pixel
		base.spacing = [2]float64{sp[1], sp[0]}
	}
	if th := floatValues(&ds, tag.SliceThickness); len(th) == 1 && th[0] > 0 {
		base.thickness = th[0]
	}
	if rep, ok := intValue(&ds, tag.PixelRepresentation); ok {
		base.modality.signed = rep == 1
	}
	if bits, ok := intValue(&ds, tag.BitsStored); ok {
		base.modality.bitsStored = bits
	}
	if sl := floatValues(&ds, tag.RescaleSlope); len(sl) == 1 && sl[0] != 0 {
		base.modality.slope = sl[0]
	}
	if ic := floatValues(&ds, tag.RescaleIntercept); len(ic) == 1 {
		base.modality.intercept = ic[0]
	}

	frames := 1
	if n, ok := intValue(&ds, tag.NumberOfFrames); ok && n > 1 {
		frames = n
	}
	out := make([]dicomSlice, frames)
	for i := range out {
		out[i] = base
		out[i].frame = i
		out[i].instance = base.instance*frames + i
	}
	return out, nil
}

// selectDICOM sorts by instance and keeps max slices from start.
func selectDICOM(slices []dicomSlice, start, max int) ([]dicomSlice, error) {
	if len(slices) == 0 {
		return nil, errors.New("no DICOM frames")
	}
	sort.SliceStable(slices, func(i, j int) bool { return slices[i].instance < slices[j].instance })
	lo, hi, err := window(len(slices), start, max)
	if err != nil {
		return nil, err
	}
	return slices[lo:hi], nil
}

// loadDICOMPixels decodes the frames of slices, parsing each file once.
func loadDICOMPixels(slices []dicomSlice) error {
	var paths []string
	byPath := make(map[string][]int)
	for i, s := range slices {
		if _, ok := byPath[s.path]; !ok {
			paths = append(paths, s.path)
		}
		byPath[s.path] = append(byPath[s.path], i)
	}

	for _, path := range paths {
		ds, err := dicom.ParseFile(path, nil)
		if err != nil {
			return &DecodeError{Path: path, Err: err}
		}
		pixEl, err := ds.FindElementByTag(tag.PixelData)
		if err != nil {
			return &DecodeError{Path: path, Err: fmt.Errorf("no pixel data: %w", err)}
		}
		info, ok := pixEl.Value.GetValue().(dicom.PixelDataInfo)
		if !ok {
			return &DecodeError{Path: path, Err: fmt.Errorf("pixel data element holds %T", pixEl.Value.GetValue())}
		}

		for _, idx := range byPath[path] {
			s := &slices[idx]
			if s.frame >= len(info.Frames) {
				return &DecodeError{Path: path, Err: fmt.Errorf("frame %d of %d missing", s.frame, len(info.Frames))}
			}
			fr := info.Frames[s.frame]
			if fr.IsEncapsulated() {
				img, err := fr.GetImage()
				if err != nil {
					return &DecodeError{Path: path, Err: fmt.Errorf("frame %d: %w", s.frame, err)}
				}
				s.width, s.height, s.samples = graySamples(img, s.modality)
				continue
			}
			nf, err := fr.GetNativeFrame()
			if err != nil {
				return &DecodeError{Path: path, Err: fmt.Errorf("frame %d: %w", s.frame, err)}
			}
			s.width, s.height, s.samples, err = nativeSamples(nf, s.modality)
			if err != nil {
				return &DecodeError{Path: path, Err: fmt.Errorf("frame %d: %w", s.frame, err)}
			}
		}
	}
	return nil
}

// nativeSamples reads the first sample of every pixel as a stored value.
func nativeSamples(nf *frame.NativeFrame, m modality) (int, int, []float64, error) {
	if len(nf.Data) != nf.Rows*nf.Cols {
		return 0, 0, nil, fmt.Errorf("%d pixels in a %dx%d frame", len(nf.Data), nf.Cols, nf.Rows)
	}
	samples := make([]float64, len(nf.Data))
	for i, px := range nf.Data {
		if len(px) > 0 {
			samples[i] = m.value(px[0])
		}
	}
	return nf.Cols, nf.Rows, samples, nil
}

// graySamples reads a decoded compressed frame. Its values are unsigned, so
// only the rescale applies.
func graySamples(img image.Image, m modality) (int, int, []float64) {
	b := img.Bounds()
	samples := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			stored := float64(color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y)
			samples = append(samples, stored*m.slope+m.intercept)
		}
	}
	return b.Dx(), b.Dy(), samples
}

// stackDICOM windows the decoded slices into one R8 volume.
func stackDICOM(slices []dicomSlice) (*volume.Voxels, error) {
	if len(slices) == 0 {
		return nil, errors.New("no DICOM frames")
	}
	first := slices[0]
	all := make([]float64, 0, len(slices)*len(first.samples))
	for _, s := range slices {
		if s.width != first.width || s.height != first.height {
			return nil, fmt.Errorf("%s is %dx%d, series is %dx%d", s.path, s.width, s.height, first.width, first.height)
		}
		all = append(all, s.samples...)
	}

	winLo, winHi := Window(all, LowQuantile, HighQuantile)
	return &volume.Voxels{
		Width:  first.width,
		Height: first.height,
		Depth:  len(slices),
		Format: gpu.R8,
		Data:   ToUint8(all, winLo, winHi),
		Spacing: [3]float32{
			float32(first.spacing[0]),
			float32(first.spacing[1]),
			float32(first.thickness),
		},
	}, nil
}

func intValue(ds *dicom.Dataset, t tag.Tag) (int, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return 0, false
	}
	switch v := el.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0], true
		}
	case []string:
		if len(v) > 0 {
			n, err := strconv.Atoi(strings.TrimSpace(v[0]))
			return n, err == nil
		}
	}
	return 0, false
}

func floatValues(ds *dicom.Dataset, t tag.Tag) []float64 {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return nil
	}
	var out []float64
	switch v := el.Value.GetValue().(type) {
	case []float64:
		out = append(out, v...)
	case []string:
		for _, s := range v {
			for _, part := range strings.Split(s, `\`) {
				f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
				if err != nil {
					return nil
				}
				out = append(out, f)
			}
		}
	}
	return out
}
