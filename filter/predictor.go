package filter

import (
	"bytes"
	"fmt"
	"io"
)

// predictorParams mirrors the /DecodeParms entries that govern PNG/TIFF
// predictor reversal (ISO 32000-1 Table 8).
type predictorParams struct {
	predictor int
	colors    int
	bpc       int
	columns   int
}

func (p predictorParams) rowSize() int {
	return (p.bpc*p.colors*p.columns + 7) / 8
}

// reversePredictor undoes predictor post-processing applied before
// compression, adapted from the teacher's reader/parser/filters/flateDecode.go
// (itself ported from pdfcpu). Predictor 2 is the TIFF horizontal
// differencing predictor; 10-15 are the PNG predictors (None, Sub, Up,
// Average, Paeth), distinguished by a one-byte tag prefixing each row.
func reversePredictor(data []byte, p predictorParams) ([]byte, error) {
	if p.predictor == 0 || p.predictor == 1 {
		return data, nil
	}

	bytesPerPixel := (p.bpc*p.colors + 7) / 8
	rowSize := p.rowSize()
	if p.predictor != 2 {
		rowSize++ // PNG rows are prefixed with a one-byte filter tag
	}

	r := bytes.NewReader(data)
	cr := make([]byte, rowSize)
	pr := make([]byte, rowSize)

	var out []byte
	for {
		_, err := io.ReadFull(r, cr)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, err
		}

		d, err := reverseRow(pr, cr, p.predictor, p.colors, bytesPerPixel)
		if err != nil {
			return nil, err
		}
		out = append(out, d...)

		pr, cr = cr, pr
	}

	if p.rowSize() > 0 && len(out)%p.rowSize() != 0 {
		return nil, fmt.Errorf("filter: predictor postprocessing left a partial row (%d bytes, row size %d)", len(out), p.rowSize())
	}
	return out, nil
}

func reverseRow(pr, cr []byte, predictor, colors, bytesPerPixel int) ([]byte, error) {
	if predictor == 2 {
		return applyTIFFHorizontalDiff(cr, colors), nil
	}

	tag := cr[0]
	cdat := cr[1:]
	pdat := pr[1:]

	switch tag {
	case 0: // None
	case 1: // Sub
		for i := bytesPerPixel; i < len(cdat); i++ {
			cdat[i] += cdat[i-bytesPerPixel]
		}
	case 2: // Up
		for i, b := range pdat {
			cdat[i] += b
		}
	case 3: // Average
		for i := 0; i < bytesPerPixel; i++ {
			cdat[i] += pdat[i] / 2
		}
		for i := bytesPerPixel; i < len(cdat); i++ {
			cdat[i] += byte((int(cdat[i-bytesPerPixel]) + int(pdat[i])) / 2)
		}
	case 4: // Paeth
		paethRow(cdat, pdat, bytesPerPixel)
	default:
		return nil, fmt.Errorf("filter: unknown PNG predictor row tag %d", tag)
	}
	return cdat, nil
}

func applyTIFFHorizontalDiff(row []byte, colors int) []byte {
	if colors <= 0 {
		return row
	}
	for i := 1; i < len(row)/colors; i++ {
		for j := 0; j < colors; j++ {
			row[i*colors+j] += row[(i-1)*colors+j]
		}
	}
	return row
}

// paethRow reverses the Paeth predictor in place. The tie-break order
// (favour a, then b, then c) matches ISO 32000-1 / RFC 2083's reference
// algorithm.
func paethRow(cdat, pdat []byte, bytesPerPixel int) {
	var a, b, c, pa, pb, pc int32
	for i := 0; i < bytesPerPixel; i++ {
		a, c = 0, 0
		for j := i; j < len(cdat); j += bytesPerPixel {
			b = int32(pdat[j])
			pa = iabs(b - c)
			pb = iabs(a - c)
			pc = iabs(a + b - 2*c)
			var pred int32
			switch {
			case pa <= pb && pa <= pc:
				pred = a
			case pb <= pc:
				pred = b
			default:
				pred = c
			}
			a = int32(byte(pred + int32(cdat[j])))
			cdat[j] = byte(a)
			c = b
		}
	}
}

func iabs(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}
