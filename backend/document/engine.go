package document

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"

	"github.com/go-pdf/fpdf"

	"github.com/promociones-residenciales/reservas/backend/model"
)

// Page geometry in millimeters.
const (
	MarginLeft   = 20.0
	MarginTop    = 20.0
	MarginRight  = 20.0
	MarginBottom = 22.0

	// MinTrailing is the least free space below the cursor before a block
	// of unknown length is moved to the next page.
	MinTrailing = 15.0

	lineHeight   = 5.0
	bodySize     = 10.0
	fontFamily   = "Helvetica"
	monoFamily   = "Courier"
	signatureBox = 25.0
)

// MaxImagePixels bounds the decoded size of a signature image (4000 x 4000).
// Larger images are not decoded and get the placeholder instead.
const MaxImagePixels = 4000 * 4000

// Options tune the engine output.
type Options struct {
	// Compress deflates page streams. Disable to inspect text in tests.
	Compress bool
	// MaxImagePixels overrides the package limit when positive.
	MaxImagePixels int
}

// Engine lays out Documents. It holds no per-render state and is safe for concurrent use.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Render produces the PDF bytes for doc. fpdf errors come back as *model.RenderError.
func (e *Engine) Render(doc Document) ([]byte, error) {
	l := newLayout(e.opts, doc)
	for _, b := range doc.Blocks {
		l.draw(b)
		if l.pdf.Err() {
			return nil, &model.RenderError{Err: fmt.Errorf("draw %T: %w", b, l.pdf.Error())}
		}
	}

	var buf bytes.Buffer
	if err := l.pdf.Output(&buf); err != nil {
		return nil, &model.RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

type layout struct {
	pdf       *fpdf.Fpdf
	tr        func(string) string
	pageW     float64
	pageH     float64
	contentW  float64
	images    int
	maxPixels int
}

func newLayout(opts Options, doc Document) *layout {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(opts.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.Meta.CreatedAt)
	pdf.SetModificationDate(doc.Meta.CreatedAt)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(doc.Meta.Title), false)
	pdf.SetAuthor(tr(doc.Meta.Author), false)
	pdf.SetSubject(tr(doc.Meta.Subject), false)
	pdf.SetCreator(tr(doc.Meta.Creator), false)
	pdf.SetProducer(tr(doc.Meta.Producer), false)
	pdf.SetKeywords(tr(doc.Meta.Keywords), false)

	pdf.SetMargins(MarginLeft, MarginTop, MarginRight)
	pdf.SetAutoPageBreak(true, MarginBottom)
	pdf.AliasNbPages("{nb}")

	w, h := pdf.GetPageSize()
	l := &layout{
		pdf:       pdf,
		tr:        tr,
		pageW:     w,
		pageH:     h,
		contentW:  w - MarginLeft - MarginRight,
		maxPixels: opts.MaxImagePixels,
	}
	if l.maxPixels <= 0 {
		l.maxPixels = MaxImagePixels
	}
	pdf.SetFooterFunc(func() {
		if doc.Watermark != "" {
			l.watermark(doc.Watermark)
		}
		l.footer(doc.Footer)
	})
	pdf.AddPage()
	return l
}

// remaining is the free vertical space above the bottom margin.
func (l *layout) remaining() float64 {
	return l.pageH - MarginBottom - l.pdf.GetY()
}

// ensureSpace moves to a new page when the next h millimeters do not fit.
func (l *layout) ensureSpace(h float64) {
	if h > l.remaining() {
		l.pdf.AddPage()
	}
}

func (l *layout) setFont(style string, size float64) {
	l.pdf.SetFont(fontFamily, style, size)
}

func (l *layout) setTextColor(c RGB) {
	l.pdf.SetTextColor(c.R, c.G, c.B)
}

// textHeight measures text wrapped at width w with the current font.
func (l *layout) textHeight(text string, w float64) float64 {
	lines := l.pdf.SplitLines([]byte(l.tr(text)), w)
	if len(lines) == 0 {
		return lineHeight
	}
	return float64(len(lines)) * lineHeight
}

func (l *layout) draw(b Block) {
	switch b := b.(type) {
	case Header:
		l.header(b)
	case Title:
		l.title(b)
	case SectionHeading:
		l.sectionHeading(b)
	case Paragraph:
		l.paragraph(b)
	case Clause:
		l.clause(b)
	case ListItem:
		l.listItem(b)
	case KeyValue:
		l.keyValue(b)
	case SignatureArea:
		l.signatureArea(b)
	case Banner:
		l.banner(b)
	case Stamp:
		l.stamp(b)
	case Spacer:
		l.ensureSpace(b.Height)
		l.pdf.Ln(b.Height)
	case Rule:
		l.rule()
	case PageBreak:
		l.pdf.AddPage()
	}
}

func (l *layout) header(b Header) {
	rows := max(len(b.Left), len(b.Right))
	l.ensureSpace(float64(rows)*lineHeight + 6)

	half := l.contentW / 2
	y0 := l.pdf.GetY()
	for i, line := range b.Left {
		style := ""
		if i == 0 {
			style = "B"
		}
		l.setFont(style, 9)
		l.setTextColor(ColorBrand)
		l.pdf.SetXY(MarginLeft, y0+float64(i)*lineHeight)
		l.pdf.CellFormat(half, lineHeight, l.tr(line), "", 0, "L", false, 0, "")
	}
	for i, line := range b.Right {
		style := ""
		if i == 0 {
			style = "B"
		}
		l.setFont(style, 9)
		l.setTextColor(ColorText)
		l.pdf.SetXY(MarginLeft+half, y0+float64(i)*lineHeight)
		l.pdf.CellFormat(half, lineHeight, l.tr(line), "", 0, "R", false, 0, "")
	}
	l.pdf.SetXY(MarginLeft, y0+float64(rows)*lineHeight+2)
	l.rule()
}

func (l *layout) title(b Title) {
	l.ensureSpace(20)
	l.setTextColor(ColorBrand)
	l.setFont("B", 15)
	l.pdf.CellFormat(0, 9, l.tr(b.Text), "", 1, "C", false, 0, "")
	if b.Subtitle != "" {
		l.setFont("", bodySize)
		l.setTextColor(ColorMuted)
		l.pdf.CellFormat(0, 6, l.tr(b.Subtitle), "", 1, "C", false, 0, "")
	}
	l.pdf.Ln(4)
}

func (l *layout) sectionHeading(b SectionHeading) {
	// heading plus the first lines of its content
	l.ensureSpace(7 + MinTrailing)
	l.pdf.Ln(2)
	l.setFont("B", 11)
	l.setTextColor(ColorBrand)
	l.pdf.CellFormat(0, 7, l.tr(b.Text), "", 1, "L", false, 0, "")
	l.pdf.Ln(1)
}

func (l *layout) paragraph(b Paragraph) {
	align := b.Align
	if align == "" {
		align = AlignJustify
	}
	size := bodySize
	if b.Small {
		size = 8
	}
	l.setFont("", size)
	l.setTextColor(ColorText)
	h := l.textHeight(b.Text, l.contentW)
	l.ensureSpace(min(h, MinTrailing))
	l.pdf.MultiCell(l.contentW, lineHeight, l.tr(b.Text), "", string(align), false)
	l.pdf.Ln(2)
}

func (l *layout) clause(b Clause) {
	l.setFont("", bodySize)
	first := lineHeight
	if len(b.Body) > 0 {
		first = l.textHeight(b.Body[0], l.contentW)
	}
	l.ensureSpace(7 + min(first, MinTrailing))

	l.setFont("B", bodySize)
	l.setTextColor(ColorBrand)
	l.pdf.CellFormat(0, 7, l.tr(b.Ordinal+".- "+b.Title), "", 1, "L", false, 0, "")
	for _, body := range b.Body {
		l.paragraph(Paragraph{Text: body})
	}
}

const listIndent = 8.0

func (l *layout) listItem(b ListItem) {
	l.setFont("", bodySize)
	l.setTextColor(ColorText)
	h := l.textHeight(b.Text, l.contentW-listIndent)
	l.ensureSpace(min(h, MinTrailing))
	l.pdf.SetX(MarginLeft + 2)
	l.pdf.CellFormat(listIndent-2, lineHeight, l.tr(b.Marker), "", 0, "L", false, 0, "")
	l.pdf.MultiCell(l.contentW-listIndent, lineHeight, l.tr(b.Text), "", "L", false)
	l.pdf.Ln(1)
}

const keyWidth = 55.0

func (l *layout) keyValue(b KeyValue) {
	valueW := l.contentW - keyWidth
	if b.Mono {
		l.pdf.SetFont(monoFamily, "", 8)
	} else {
		l.setFont("", bodySize)
	}
	h := l.textHeight(b.Value, valueW)
	l.ensureSpace(h + 1)

	l.setFont("B", bodySize)
	l.setTextColor(ColorBrand)
	l.pdf.CellFormat(keyWidth, lineHeight, l.tr(b.Key), "", 0, "L", false, 0, "")
	if b.Mono {
		l.pdf.SetFont(monoFamily, "", 8)
	} else {
		l.setFont("", bodySize)
	}
	l.setTextColor(ColorText)
	l.pdf.MultiCell(valueW, lineHeight, l.tr(b.Value), "", "L", false)
	l.pdf.Ln(1)
}

func (l *layout) signatureArea(b SignatureArea) {
	l.ensureSpace(signatureBox + 30)
	l.pdf.Ln(4)
	y0 := l.pdf.GetY()
	half := l.contentW / 2
	l.signatureParty(b.Promoter, MarginLeft, y0, half)
	l.signatureParty(b.Buyer, MarginLeft+half, y0, half)
	l.pdf.SetXY(MarginLeft, y0+signatureBox+22)
}

func (l *layout) signatureParty(p SignatureParty, x, y, w float64) {
	lineW := w - 15
	l.setFont("B", bodySize)
	l.setTextColor(ColorBrand)
	l.pdf.SetXY(x, y)
	l.pdf.CellFormat(w, lineHeight, l.tr(p.Role), "", 0, "L", false, 0, "")

	boxTop := y + lineHeight + 1
	drawn := false
	if len(p.Image) > 0 {
		drawn = l.signatureImage(p.Image, x, boxTop, lineW, signatureBox-2)
	}
	if !drawn && p.Placeholder != "" {
		l.setFont("I", 9)
		l.setTextColor(ColorSigned)
		l.pdf.SetXY(x, boxTop+signatureBox/2-lineHeight)
		l.pdf.CellFormat(lineW, lineHeight, l.tr(p.Placeholder), "", 0, "C", false, 0, "")
	}

	lineY := boxTop + signatureBox
	l.pdf.SetDrawColor(ColorText.R, ColorText.G, ColorText.B)
	l.pdf.SetLineWidth(0.3)
	l.pdf.Line(x, lineY, x+lineW, lineY)

	l.setFont("", 9)
	l.setTextColor(ColorText)
	l.pdf.SetXY(x, lineY+1)
	l.pdf.CellFormat(lineW, lineHeight, l.tr(p.Name), "", 0, "L", false, 0, "")
	if p.Detail != "" {
		l.setTextColor(ColorMuted)
		l.pdf.SetXY(x, lineY+1+lineHeight)
		l.pdf.CellFormat(lineW, lineHeight, l.tr(p.Detail), "", 0, "L", false, 0, "")
	}
}

// signatureImage draws the captured signature inside the box, keeping its aspect ratio.
// Images that cannot be decoded are reported as not drawn so the caller prints the placeholder.
func (l *layout) signatureImage(data []byte, x, y, maxW, maxH float64) bool {
	name, imgW, imgH, ok := l.registerImage(data)
	if !ok {
		return false
	}
	scale := min(maxW/imgW, maxH/imgH)
	w, h := imgW*scale, imgH*scale
	l.pdf.ImageOptions(name, x+(maxW-w)/2, y+(maxH-h)/2, w, h, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return !l.pdf.Err()
}

// registerImage normalizes any decodable image to an 8-bit RGBA PNG before handing it
// to fpdf, which rejects interlaced and 16-bit PNGs. Dimensions are read from the
// header first so an oversized image is never decoded.
func (l *layout) registerImage(data []byte) (string, float64, float64, bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Warn("signature image not decodable, using placeholder", "error", err)
		return "", 0, 0, false
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > l.maxPixels/cfg.Height {
		slog.Warn("signature image too large, using placeholder", "width", cfg.Width, "height", cfg.Height)
		return "", 0, 0, false
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Warn("signature image not decodable, using placeholder", "error", err)
		return "", 0, 0, false
	}
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return "", 0, 0, false
	}
	rgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		slog.Warn("signature image not encodable, using placeholder", "format", format, "error", err)
		return "", 0, 0, false
	}

	l.images++
	name := fmt.Sprintf("signature-%d", l.images)
	info := l.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, &buf)
	if l.pdf.Err() || info == nil {
		slog.Warn("signature image rejected by pdf backend, using placeholder", "error", l.pdf.Error())
		l.pdf.ClearError()
		return "", 0, 0, false
	}
	return name, info.Width(), info.Height(), true
}

func (l *layout) banner(b Banner) {
	h := 10.0
	if b.Detail != "" {
		h += lineHeight
	}
	l.ensureSpace(h + 4)
	l.pdf.SetFillColor(b.Color.R, b.Color.G, b.Color.B)
	l.pdf.SetTextColor(255, 255, 255)
	l.setFont("B", 12)
	l.pdf.CellFormat(0, 10, l.tr(b.Text), "", 1, "C", true, 0, "")
	if b.Detail != "" {
		l.setFont("", 8)
		l.pdf.CellFormat(0, lineHeight, l.tr(b.Detail), "", 1, "C", true, 0, "")
	}
	l.setTextColor(ColorText)
	l.pdf.Ln(4)
}

func (l *layout) stamp(b Stamp) {
	const w, h = 80.0, 24.0
	l.ensureSpace(h + 6)
	l.pdf.Ln(3)
	x := MarginLeft + (l.contentW-w)/2
	y := l.pdf.GetY()

	l.pdf.SetDrawColor(b.Color.R, b.Color.G, b.Color.B)
	l.pdf.SetLineWidth(1)
	l.pdf.Rect(x, y, w, h, "D")
	l.pdf.SetLineWidth(0.3)
	l.pdf.Rect(x+1.5, y+1.5, w-3, h-3, "D")

	l.pdf.SetTextColor(b.Color.R, b.Color.G, b.Color.B)
	l.setFont("B", 16)
	l.pdf.SetXY(x, y+4)
	l.pdf.CellFormat(w, 9, l.tr(b.Text), "", 2, "C", false, 0, "")
	if b.Detail != "" {
		l.setFont("", 7)
		l.pdf.CellFormat(w, lineHeight, l.tr(b.Detail), "", 2, "C", false, 0, "")
	}
	l.pdf.SetXY(MarginLeft, y+h+4)
	l.setTextColor(ColorText)
}

func (l *layout) rule() {
	y := l.pdf.GetY()
	l.pdf.SetDrawColor(ColorMuted.R, ColorMuted.G, ColorMuted.B)
	l.pdf.SetLineWidth(0.2)
	l.pdf.Line(MarginLeft, y, l.pageW-MarginRight, y)
	l.pdf.Ln(3)
}

// watermark runs from the page footer so it overlays the page content.
func (l *layout) watermark(text string) {
	cx, cy := l.pageW/2, l.pageH/2
	l.pdf.SetFont(fontFamily, "B", 54)
	l.pdf.SetTextColor(ColorSigned.R, ColorSigned.G, ColorSigned.B)
	l.pdf.SetAlpha(0.08, "Normal")
	l.pdf.TransformBegin()
	l.pdf.TransformRotate(45, cx, cy)
	txt := l.tr(text)
	l.pdf.Text(cx-l.pdf.GetStringWidth(txt)/2, cy, txt)
	l.pdf.TransformEnd()
	l.pdf.SetAlpha(1, "Normal")
}

func (l *layout) footer(text string) {
	l.pdf.SetY(-15)
	l.setFont("", 7)
	l.setTextColor(ColorMuted)
	label := fmt.Sprintf("Página %d de {nb}", l.pdf.PageNo())
	if text != "" {
		label = text + " · " + label
	}
	l.pdf.CellFormat(0, 10, l.tr(label), "", 0, "C", false, 0, "")
}
