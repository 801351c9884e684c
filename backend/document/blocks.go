// Package document describes contracts as a sequence of immutable content blocks
// and lays them out on A4 pages.
package document

import "time"

// Block is one unit of content consumed by the layout engine.
type Block interface {
	block()
}

// Align is a paragraph alignment understood by fpdf: "L", "C", "R" or "J".
type Align string

const (
	AlignLeft    Align = "L"
	AlignCenter  Align = "C"
	AlignRight   Align = "R"
	AlignJustify Align = "J"
)

// RGB is a color with 0-255 components.
type RGB struct{ R, G, B int }

var (
	ColorBrand   = RGB{26, 58, 94}
	ColorSigned  = RGB{22, 120, 72}
	ColorMuted   = RGB{110, 110, 110}
	ColorText    = RGB{33, 33, 33}
	ColorWarning = RGB{190, 40, 40}
)

// Header is the top block: issuer facts on the left, contract facts on the right.
type Header struct {
	Left  []string
	Right []string
}

// Title is a centered document title.
type Title struct {
	Text     string
	Subtitle string
}

// SectionHeading opens a section such as REUNIDOS or EXPONEN.
type SectionHeading struct {
	Text string
}

// Paragraph is flowing text. Empty Align means justified.
type Paragraph struct {
	Text  string
	Align Align
	Small bool
}

// Clause is a numbered contract clause with a bold title.
type Clause struct {
	Ordinal string
	Title   string
	Body    []string
}

// ListItem is an indented line with a marker.
type ListItem struct {
	Marker string
	Text   string
}

// KeyValue is a label/value row. Mono prints the value in a fixed-width font.
type KeyValue struct {
	Key   string
	Value string
	Mono  bool
}

// SignatureParty is one of the two signature areas.
// Image holds encoded image bytes; when it cannot be drawn Placeholder is printed.
type SignatureParty struct {
	Role        string
	Name        string
	Detail      string
	Image       []byte
	Placeholder string
}

// SignatureArea places the promoter and buyer signatures side by side.
type SignatureArea struct {
	Promoter SignatureParty
	Buyer    SignatureParty
}

// Banner is a full-width colored strip.
type Banner struct {
	Text   string
	Detail string
	Color  RGB
}

// Stamp is a bordered, centered seal.
type Stamp struct {
	Text   string
	Detail string
	Color  RGB
}

// Spacer adds vertical space in millimeters.
type Spacer struct {
	Height float64
}

// Rule draws a horizontal line across the content width.
type Rule struct{}

// PageBreak starts a new page.
type PageBreak struct{}

func (Header) block()         {}
func (Title) block()          {}
func (SectionHeading) block() {}
func (Paragraph) block()      {}
func (Clause) block()         {}
func (ListItem) block()       {}
func (KeyValue) block()       {}
func (SignatureArea) block()  {}
func (Banner) block()         {}
func (Stamp) block()          {}
func (Spacer) block()         {}
func (Rule) block()           {}
func (PageBreak) block()      {}

// Meta is the PDF information dictionary.
type Meta struct {
	Title     string
	Author    string
	Subject   string
	Creator   string
	Producer  string
	Keywords  string
	CreatedAt time.Time
}

// Document is everything the engine needs to produce a PDF.
type Document struct {
	Meta      Meta
	Watermark string
	Footer    string
	Blocks    []Block
}

// Texts returns the printable text of every block in order.
// It is what a reader sees, independent of layout.
func (d Document) Texts() []string {
	var out []string
	add := func(s ...string) {
		for _, v := range s {
			if v != "" {
				out = append(out, v)
			}
		}
	}
	for _, b := range d.Blocks {
		switch b := b.(type) {
		case Header:
			add(b.Left...)
			add(b.Right...)
		case Title:
			add(b.Text, b.Subtitle)
		case SectionHeading:
			add(b.Text)
		case Paragraph:
			add(b.Text)
		case Clause:
			add(b.Ordinal + ".- " + b.Title)
			add(b.Body...)
		case ListItem:
			add(b.Marker + " " + b.Text)
		case KeyValue:
			add(b.Key + ": " + b.Value)
		case SignatureArea:
			add(b.Promoter.Role, b.Promoter.Name, b.Promoter.Detail)
			add(b.Buyer.Role, b.Buyer.Name, b.Buyer.Detail)
		case Banner:
			add(b.Text, b.Detail)
		case Stamp:
			add(b.Text, b.Detail)
		}
	}
	add(d.Watermark)
	return out
}
