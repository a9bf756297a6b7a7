package document

import (
	"errors"
	"fmt"
	"strings"
)

type tableGeometry struct {
	widths  []float64
	x       float64
	headerH float64
	rowH    float64
}

func (fw *flowWriter) table(t Table) error {
	if len(t.Header) == 0 {
		return errors.New("table has no header")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("table row %d has %d cells, header has %d", i+1, len(row), len(t.Header))
		}
	}

	g, err := fw.measureTable(t)
	if err != nil {
		return err
	}

	fw.ensure(g.headerH + g.rowH)
	if err := fw.tableHeader(t.Header, g); err != nil {
		return err
	}

	for _, row := range t.Rows {
		if fw.y+g.rowH > fw.bottom() {
			fw.newPage()
			if err := fw.tableHeader(t.Header, g); err != nil {
				return err
			}
		}
		if err := fw.tableRow(row, g, fontRegular, fw.layout.CellFontSize, beige, black, g.rowH, fw.layout.CellPadding/2); err != nil {
			return err
		}
	}
	return nil
}

// measureTable sizes each column to its widest cell and scales the whole
// table down when it would not fit between the margins
func (fw *flowWriter) measureTable(t Table) (tableGeometry, error) {
	l := fw.layout
	widths := make([]float64, len(t.Header))

	measure := func(family string, size float64, cells []string) error {
		if err := fw.pdf.SetFont(family, "", size); err != nil {
			return fmt.Errorf("set font %s: %w", family, err)
		}
		for i, cell := range cells {
			w, err := fw.pdf.MeasureTextWidth(cell)
			if err != nil {
				return fmt.Errorf("measure cell: %w", err)
			}
			if w+2*l.CellPadding > widths[i] {
				widths[i] = w + 2*l.CellPadding
			}
		}
		return nil
	}

	if err := measure(fontBold, l.HeaderFontSize, t.Header); err != nil {
		return tableGeometry{}, err
	}
	for _, row := range t.Rows {
		if err := measure(fontRegular, l.CellFontSize, row); err != nil {
			return tableGeometry{}, err
		}
	}

	total := 0.0
	for _, w := range widths {
		total += w
	}
	if avail := fw.contentWidth(); total > avail {
		for i := range widths {
			widths[i] *= avail / total
		}
		total = avail
	}

	return tableGeometry{
		widths:  widths,
		x:       l.Margin + (fw.contentWidth()-total)/2,
		headerH: l.HeaderFontSize*l.Leading + l.CellPadding/2 + l.HeaderBottomPadding,
		rowH:    l.CellFontSize*l.Leading + l.CellPadding,
	}, nil
}

func (fw *flowWriter) tableHeader(header []string, g tableGeometry) error {
	return fw.tableRow(header, g, fontBold, fw.layout.HeaderFontSize, grey, whiteSmoke, g.headerH, fw.layout.CellPadding/2)
}

func (fw *flowWriter) tableRow(cells []string, g tableGeometry, family string, size float64, fill, ink rgb, h, topPad float64) error {
	pdf := fw.pdf
	if err := fw.setFont(family, size, ink); err != nil {
		return err
	}

	x := g.x
	for i, cell := range cells {
		w := g.widths[i]

		pdf.SetFillColor(fill.r, fill.g, fill.b)
		pdf.RectFromUpperLeftWithStyle(x, fw.y, w, h, "F")

		pdf.SetStrokeColor(black.r, black.g, black.b)
		pdf.SetLineWidth(fw.layout.GridWidth)
		pdf.RectFromUpperLeftWithStyle(x, fw.y, w, h, "D")

		cell, err := fw.clip(cell, w-2*fw.layout.CellPadding)
		if err != nil {
			return err
		}
		tw, err := pdf.MeasureTextWidth(cell)
		if err != nil {
			return fmt.Errorf("measure cell: %w", err)
		}
		pdf.SetTextColor(ink.r, ink.g, ink.b)
		if err := fw.text(x+(w-tw)/2, fw.y+topPad, cell); err != nil {
			return err
		}
		x += w
	}

	fw.y += h
	return nil
}

const ellipsis = "…"

// clip shortens s with a trailing ellipsis until it fits width in the
// current font
func (fw *flowWriter) clip(s string, width float64) (string, error) {
	ok, err := fw.fits(s, width)
	if err != nil || ok {
		return s, err
	}

	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		candidate := strings.TrimRight(string(runes[:n]), " ") + ellipsis
		if ok, err := fw.fits(candidate, width); err != nil || ok {
			return candidate, err
		}
	}
	return ellipsis, nil
}
