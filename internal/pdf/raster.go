package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Rasterizer renders PDF pages to JPEG images.
type Rasterizer interface {
	Render(ctx context.Context, pdfPath, outDir string) ([]string, error)
}

type pdftoppmRasterizer struct {
	runner  Runner
	binary  string
	dpi     int
	quality int
}

// NewRasterizer returns a Rasterizer backed by pdftoppm.
func NewRasterizer(runner Runner, dpi, quality int) Rasterizer {
	return &pdftoppmRasterizer{runner: runner, binary: "pdftoppm", dpi: dpi, quality: quality}
}

// Render writes one JPEG per page into outDir, named <base>_00001.jpg,
// <base>_00002.jpg, ... in page order. Pages already on disk are kept as-is,
// so a retried job does not re-render what it has.
func (r *pdftoppmRasterizer) Render(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create raster dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))

	prefix := filepath.Join(outDir, base)
	// pdftoppm -jpeg -r <dpi> -jpegopt quality=<q> <in.pdf> <outDir/base>
	_, errb, err := r.runner.Run(ctx, r.binary,
		"-jpeg",
		"-r", fmt.Sprintf("%d", r.dpi),
		"-jpegopt", fmt.Sprintf("quality=%d", r.quality),
		pdfPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w (stderr: %s)", err, truncate(string(errb), 1<<10))
	}

	// pdftoppm names pages prefix-1.jpg, prefix-01.jpg... depending on page
	// count; normalize to a fixed-width suffix so downstream ordering is
	// lexicographic.
	matches, _ := filepath.Glob(prefix + "-*.jpg")
	sort.Slice(matches, func(i, j int) bool {
		return pageNumber(matches[i], prefix) < pageNumber(matches[j], prefix)
	})
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images for %s", pdfPath)
	}

	var out []string
	for i, m := range matches {
		name := filepath.Join(outDir, fmt.Sprintf("%s_%05d.jpg", base, i+1))
		if m != name {
			if _, err := os.Stat(name); err == nil {
				_ = os.Remove(m)
			} else if err := os.Rename(m, name); err != nil {
				return nil, fmt.Errorf("rename page image: %w", err)
			}
		}
		out = append(out, name)
	}
	return out, nil
}

func pageNumber(path, prefix string) int {
	s := strings.TrimSuffix(strings.TrimPrefix(path, prefix+"-"), ".jpg")
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
