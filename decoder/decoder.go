// Package decoder turns image stacks and DICOM series on disk into voxel
// grids ready for upload.
package decoder

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Import defaults.
const (
	DefaultMaxSlices  = 500
	DefaultStartSlice = 0
	DefaultPixelSize  = 0.1
)

// DecodeError reports a source that could not be turned into voxels. No GPU
// state is touched when decoding fails.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode volume %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ImageStackRequest selects a directory of 2D slices. Path may name the
// directory or any file inside it.
type ImageStackRequest struct {
	Path           string
	MaxSlices      int
	StartSlice     int
	PixelWidth     float32
	PixelHeight    float32
	SliceThickness float32
}

// NewImageStackRequest returns a request with the import defaults.
func NewImageStackRequest(path string) ImageStackRequest {
	return ImageStackRequest{
		Path:           path,
		MaxSlices:      DefaultMaxSlices,
		StartSlice:     DefaultStartSlice,
		PixelWidth:     DefaultPixelSize,
		PixelHeight:    DefaultPixelSize,
		SliceThickness: DefaultPixelSize,
	}
}

// DICOMRequest selects a DICOM series. Path may name the directory or any
// file inside it.
type DICOMRequest struct {
	Path       string
	MaxSlices  int
	StartSlice int
}

// NewDICOMRequest returns a request with the import defaults.
func NewDICOMRequest(path string) DICOMRequest {
	return DICOMRequest{Path: path, MaxSlices: DefaultMaxSlices, StartSlice: DefaultStartSlice}
}

// Files decodes from the local file system.
type Files struct{}

var digitsRe = regexp.MustCompile(`\d+`)

// listSlices returns the files of dir (or of the directory holding path)
// with one of exts, ordered by the last number in their name and then by
// name.
func listSlices(path string, exts ...string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		ni, oki := sliceNumber(files[i])
		nj, okj := sliceNumber(files[j])
		if oki && okj && ni != nj {
			return ni < nj
		}
		return files[i] < files[j]
	})
	return files, nil
}

func sliceNumber(path string) (int, bool) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m := digitsRe.FindAllString(base, -1)
	if len(m) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(m[len(m)-1])
	return n, err == nil
}

// window applies start and max to n ordered slices.
func window(n, start, max int) (lo, hi int, err error) {
	if start < 0 {
		start = 0
	}
	if start >= n {
		return 0, 0, fmt.Errorf("start slice %d is past the %d slices found", start, n)
	}
	hi = n
	if max > 0 && start+max < n {
		hi = start + max
	}
	return start, hi, nil
}
