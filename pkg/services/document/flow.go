package document

import (
	"fmt"
	"strings"

	"github.com/signintech/gopdf"
)

// flowWriter places blocks top to bottom and starts a new page whenever the
// next piece does not fit above the bottom margin.
type flowWriter struct {
	pdf    *gopdf.GoPdf
	layout Layout
	y      float64
	pages  int
}

func newFlowWriter(pdf *gopdf.GoPdf, layout Layout) *flowWriter {
	return &flowWriter{pdf: pdf, layout: layout}
}

func (fw *flowWriter) contentWidth() float64 {
	return fw.layout.PageSize.W - 2*fw.layout.Margin
}

func (fw *flowWriter) bottom() float64 {
	return fw.layout.PageSize.H - fw.layout.Margin
}

func (fw *flowWriter) newPage() {
	fw.pdf.AddPage()
	fw.pages++
	fw.y = fw.layout.Margin
}

// ensure starts a new page unless h more points fit on the current one.
// A piece taller than a whole page is placed at the top of a fresh page.
func (fw *flowWriter) ensure(h float64) {
	if fw.y+h <= fw.bottom() || fw.y == fw.layout.Margin {
		return
	}
	fw.newPage()
}

func (fw *flowWriter) space(h float64) {
	if fw.y+h > fw.bottom() {
		fw.newPage()
		return
	}
	fw.y += h
}

func (fw *flowWriter) setFont(family string, size float64, c rgb) error {
	if err := fw.pdf.SetFont(family, "", size); err != nil {
		return fmt.Errorf("set font %s: %w", family, err)
	}
	fw.pdf.SetTextColor(c.r, c.g, c.b)
	return nil
}

func (fw *flowWriter) text(x, y float64, s string) error {
	fw.pdf.SetXY(x, y)
	return fw.pdf.Cell(nil, s)
}

func (fw *flowWriter) heading(h Heading) error {
	size := fw.layout.HeadingSize
	if h.Level <= 1 {
		size = fw.layout.TitleSize
	}
	if err := fw.setFont(fontBold, size, black); err != nil {
		return err
	}

	lineH := size * fw.layout.Leading
	// keep the heading on the same page as the first line that follows it
	fw.ensure(lineH + spacerHeight + fw.layout.BodySize*fw.layout.Leading)

	lines, err := fw.wrap(h.Text, fw.contentWidth())
	if err != nil {
		return err
	}
	for _, line := range lines {
		fw.ensure(lineH)
		if err := fw.text(fw.layout.Margin, fw.y, line); err != nil {
			return err
		}
		fw.y += lineH
	}
	return nil
}

func (fw *flowWriter) paragraph(p Paragraph) error {
	if err := fw.setFont(fontRegular, fw.layout.BodySize, black); err != nil {
		return err
	}

	lineH := fw.layout.BodySize * fw.layout.Leading
	for _, raw := range p.Lines {
		lines, err := fw.wrap(raw, fw.contentWidth())
		if err != nil {
			return err
		}
		for _, line := range lines {
			fw.ensure(lineH)
			if err := fw.text(fw.layout.Margin, fw.y, line); err != nil {
				return err
			}
			fw.y += lineH
		}
	}
	return nil
}

func (fw *flowWriter) image(img Image) error {
	if err := checkImage(img); err != nil {
		return err
	}

	holder, err := gopdf.ImageHolderByBytes(img.Data)
	if err != nil {
		return fmt.Errorf("%s image: %w", img.Name, err)
	}

	w, h := img.Width, img.Height
	if w > fw.contentWidth() {
		h = h * fw.contentWidth() / w
		w = fw.contentWidth()
	}

	fw.ensure(h)
	x := fw.layout.Margin + (fw.contentWidth()-w)/2
	if err := fw.pdf.ImageByHolder(holder, x, fw.y, &gopdf.Rect{W: w, H: h}); err != nil {
		return fmt.Errorf("place %s image: %w", img.Name, err)
	}
	fw.y += h
	return nil
}

// wrap breaks s at spaces so that no line exceeds width, unless a single
// word is wider than width on its own. Leading spaces of s are kept.
func (fw *flowWriter) wrap(s string, width float64) ([]string, error) {
	fits, err := fw.fits(s, width)
	if err != nil || fits {
		return []string{s}, err
	}

	indent := s[:len(s)-len(strings.TrimLeft(s, " "))]
	words := strings.Fields(s)

	var (
		lines   []string
		current = indent
	)
	for _, word := range words {
		candidate := current + word
		if current != indent {
			candidate = current + " " + word
		}
		ok, err := fw.fits(candidate, width)
		if err != nil {
			return nil, err
		}
		if ok || current == indent {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = indent + word
	}
	return append(lines, current), nil
}

func (fw *flowWriter) fits(s string, width float64) (bool, error) {
	w, err := fw.pdf.MeasureTextWidth(s)
	if err != nil {
		return false, fmt.Errorf("measure text: %w", err)
	}
	return w <= width, nil
}
