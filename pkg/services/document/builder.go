package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/de-tools/sales-report/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	fontRegular = "GoRegular"
	fontBold    = "GoBold"

	defaultFileMode os.FileMode = 0o644
)

type rgb struct{ r, g, b uint8 }

var (
	black      = rgb{0, 0, 0}
	grey       = rgb{128, 128, 128}
	whiteSmoke = rgb{245, 245, 245}
	beige      = rgb{245, 245, 220}
)

// Layout controls page geometry and typography, in points
type Layout struct {
	PageSize gopdf.Rect
	Margin   float64

	TitleSize   float64
	HeadingSize float64
	BodySize    float64
	Leading     float64 // line height as a multiple of the font size

	HeaderFontSize      float64
	HeaderBottomPadding float64
	CellFontSize        float64
	CellPadding         float64
	GridWidth           float64
}

// DefaultLayout is Letter with one-inch margins
func DefaultLayout() Layout {
	return Layout{
		PageSize:            *gopdf.PageSizeLetter,
		Margin:              72,
		TitleSize:           18,
		HeadingSize:         14,
		BodySize:            10,
		Leading:             1.2,
		HeaderFontSize:      14,
		HeaderBottomPadding: 12,
		CellFontSize:        12,
		CellPadding:         6,
		GridWidth:           1,
	}
}

// Builder serializes a block sequence into a document file
type Builder interface {
	Build(ctx context.Context, blocks []Block, path string) error
}

type pdfBuilder struct {
	layout Layout
	title  string
}

func NewBuilder(layout Layout, title string) Builder {
	return &pdfBuilder{layout: layout, title: title}
}

// Build renders blocks and writes them to path. The file is assembled next
// to path and renamed into place, so path is either the complete new report
// or untouched. Failures are *domain.DocumentBuildError.
func (b *pdfBuilder) Build(ctx context.Context, blocks []Block, path string) error {
	logger := zerolog.Ctx(ctx)

	pdf, pages, err := b.render(ctx, blocks)
	if err != nil {
		return &domain.DocumentBuildError{Path: path, Err: err}
	}

	if err := writeAtomic(path, pdf); err != nil {
		return &domain.DocumentBuildError{Path: path, Err: err}
	}

	logger.Debug().
		Str("path", path).
		Int("pages", pages).
		Int("blocks", len(blocks)).
		Msg("document written")
	return nil
}

func (b *pdfBuilder) newDocument() (*gopdf.GoPdf, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: b.layout.PageSize, Unit: gopdf.UnitPT})
	pdf.SetInfo(gopdf.PdfInfo{Title: b.title, Creator: "sales-report"})

	if err := pdf.AddTTFFontData(fontRegular, goregular.TTF); err != nil {
		return nil, fmt.Errorf("load regular font: %w", err)
	}
	if err := pdf.AddTTFFontData(fontBold, gobold.TTF); err != nil {
		return nil, fmt.Errorf("load bold font: %w", err)
	}
	return pdf, nil
}

func (b *pdfBuilder) render(ctx context.Context, blocks []Block) (*gopdf.GoPdf, int, error) {
	pdf, err := b.newDocument()
	if err != nil {
		return nil, 0, err
	}

	fw := newFlowWriter(pdf, b.layout)
	fw.newPage()

	for i, blk := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		var err error
		switch v := blk.(type) {
		case Heading:
			err = fw.heading(v)
		case Paragraph:
			err = fw.paragraph(v)
		case Spacer:
			fw.space(v.Height)
		case Image:
			err = fw.image(v)
		case Table:
			err = fw.table(v)
		default:
			err = fmt.Errorf("unsupported block %T", blk)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("block %d: %w", i, err)
		}
	}

	return pdf, fw.pages, nil
}

func writeAtomic(path string, pdf *gopdf.GoPdf) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = tmp.Chmod(reportMode(path)); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err = pdf.Write(tmp); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("move into place: %w", err)
	}
	return nil
}

// reportMode keeps the permissions of a report being replaced, otherwise
// the file is readable by everyone like any plain write under umask 022
func reportMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return info.Mode().Perm()
	}
	return defaultFileMode
}

// checkImage rejects buffers that are not a decodable raster image
func checkImage(img Image) error {
	if len(img.Data) == 0 {
		return fmt.Errorf("%s image is empty", img.Name)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(img.Data)); err != nil {
		return fmt.Errorf("%s image: %w", img.Name, err)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return errors.New("image display size must be positive")
	}
	return nil
}
