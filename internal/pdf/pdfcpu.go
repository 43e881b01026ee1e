package pdf

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageImage is an embedded raster image of a page, decoded by pdfcpu
type PageImage struct {
	Page     int
	ObjNr    int
	FileType string
	Width    int
	Height   int
	Data     []byte
}

// Area is the image size in pixels
func (i PageImage) Area() int {
	return i.Width * i.Height
}

// structure is the pdfcpu view of a drawing: page boxes and embedded images
type structure struct {
	ctx *model.Context
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// openStructure reads and validates path with pdfcpu. The context is
// optimized so that the images referenced by each page are known.
func openStructure(path string) (*structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return &structure{ctx: ctx}, nil
}

// PageCount returns the number of pages
func (s *structure) PageCount() int {
	return s.ctx.PageCount
}

// Box returns the media box and rotation of a page, including values
// inherited from the page tree.
func (s *structure) Box(pageNr int) (PageBox, error) {
	_, _, attrs, err := s.ctx.PageDict(pageNr, false)
	if err != nil {
		return PageBox{}, fmt.Errorf("failed to read page %d: %w", pageNr, err)
	}
	if attrs == nil {
		return Letter, nil
	}

	box := Letter
	if mb := attrs.MediaBox; mb != nil {
		candidate := PageBox{X0: mb.LL.X, Y0: mb.LL.Y, X1: mb.UR.X, Y1: mb.UR.Y}
		if candidate.valid() {
			box = candidate
		}
	}
	box.Rotation = attrs.Rotate
	return box, nil
}

// Images returns the embedded images of a page, largest first
func (s *structure) Images(pageNr int) ([]PageImage, error) {
	found, err := pdfcpu.ExtractPageImages(s.ctx, pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images from page %d: %w", pageNr, err)
	}

	images := make([]PageImage, 0, len(found))
	for objNr, img := range found {
		data, err := io.ReadAll(img)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %d on page %d: %w", objNr, pageNr, err)
		}
		w, h := img.Width, img.Height
		// pdfcpu leaves the size unset for most images
		if w == 0 || h == 0 {
			if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
				w, h = cfg.Width, cfg.Height
			}
		}
		images = append(images, PageImage{
			Page:     pageNr,
			ObjNr:    objNr,
			FileType: img.FileType,
			Width:    w,
			Height:   h,
			Data:     data,
		})
	}
	sort.Slice(images, func(i, j int) bool {
		if images[i].Area() != images[j].Area() {
			return images[i].Area() > images[j].Area()
		}
		return images[i].ObjNr < images[j].ObjNr
	})
	return images, nil
}

// ValidateStructure runs pdfcpu's relaxed validation over path
func ValidateStructure(path string) error {
	if err := api.ValidateFile(path, newConfiguration()); err != nil {
		return fmt.Errorf("invalid PDF structure: %w", err)
	}
	return nil
}
