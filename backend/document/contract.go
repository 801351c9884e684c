package document

import (
	"fmt"

	"github.com/promociones-residenciales/reservas/backend/model"
	"github.com/promociones-residenciales/reservas/backend/pkg/format"
)

const (
	// SignedWatermark overlays every page of a signed contract.
	SignedWatermark = "FIRMADO DIGITALMENTE"
	// SignaturePlaceholder replaces the buyer signature when no image can be drawn.
	SignaturePlaceholder = "[FIRMA DIGITAL REGISTRADA]"

	producer = "reservas document engine"
	creator  = "reservas"
)

// DeliveredDocuments is the documentation handed to the buyer with the reservation.
var DeliveredDocuments = []string{
	"Planos de la vivienda y de sus anejos",
	"Memoria de calidades",
	"Plan de pagos de la compraventa",
	"Copia de la licencia de obras",
	"Nota simple registral del solar",
	"Certificado de eficiencia energética en proyecto",
}

var ordinals = []string{
	"PRIMERA", "SEGUNDA", "TERCERA", "CUARTA", "QUINTA",
	"SEXTA", "SÉPTIMA", "OCTAVA", "NOVENA", "DÉCIMA",
}

// ContractDocument lays out the reservation contract. sig is nil for the unsigned
// variant; when present the document carries the watermark, the signed banner and
// the verification certificate page.
func ContractDocument(data *model.ContractData, sig *model.SignatureRecord) Document {
	signed := sig != nil
	doc := Document{
		Meta:   contractMeta(data),
		Footer: "Contrato " + data.Number,
	}
	if signed {
		doc.Watermark = SignedWatermark
		doc.Blocks = append(doc.Blocks, Banner{
			Text:   "DOCUMENTO FIRMADO DIGITALMENTE",
			Detail: fmt.Sprintf("Firmado el %s · Huella SHA-256: %s…", format.DateTime(sig.ProcessedAt), format.ShortHash(sig.Hash, 16)),
			Color:  ColorSigned,
		})
	}

	doc.Blocks = append(doc.Blocks,
		Header{
			Left: []string{
				data.Promoter.Name,
				"CIF " + data.Promoter.TaxID,
				data.Promoter.Address,
			},
			Right: []string{
				"Contrato nº " + data.Number,
				format.LongDate(data.Dates.Today),
				data.Promotion.Name,
			},
		},
		Title{Text: "CONTRATO DE RESERVA DE VIVIENDA", Subtitle: data.Promotion.Name},
	)
	doc.Blocks = append(doc.Blocks, partiesSection(data)...)
	doc.Blocks = append(doc.Blocks, declarationsSection(data)...)
	doc.Blocks = append(doc.Blocks, clauses(data, signed)...)
	doc.Blocks = append(doc.Blocks,
		Paragraph{Text: fmt.Sprintf(
			"Y en prueba de conformidad, las partes firman el presente contrato por duplicado y a un solo efecto en %s, a %s.",
			data.Promotion.City, format.LongDate(data.Dates.Today))},
		signatureBlock(data, sig),
		PageBreak{},
	)
	doc.Blocks = append(doc.Blocks, annexes(data)...)
	if signed {
		doc.Blocks = append(doc.Blocks, PageBreak{})
		doc.Blocks = append(doc.Blocks, CertificateBlocks(data, sig)...)
	}
	return doc
}

func contractMeta(data *model.ContractData) Meta {
	return Meta{
		Title:     "Contrato de Reserva " + data.Number,
		Author:    data.Promoter.Name,
		Subject:   fmt.Sprintf("Reserva %s - %s", data.Unit.Name, data.Buyer.FullName),
		Creator:   creator,
		Producer:  producer,
		Keywords:  fmt.Sprintf("contrato, reserva, %s, %s", data.Number, data.Meta.ReservationID),
		CreatedAt: data.GeneratedAt,
	}
}

func partiesSection(data *model.ContractData) []Block {
	p, b := data.Promoter, data.Buyer
	return []Block{
		SectionHeading{Text: "REUNIDOS"},
		Paragraph{Text: fmt.Sprintf(
			"De una parte, D./Dña. %s, con DNI %s, en nombre y representación de %s, con CIF %s y domicilio social en %s, inscrita en %s (en adelante, «EL PROMOTOR»).",
			p.Representative, p.RepresentativeID, p.Name, p.TaxID, p.Address, p.Registry)},
		Paragraph{Text: fmt.Sprintf(
			"De otra parte, D./Dña. %s, mayor de edad, con DNI/NIE %s, con domicilio en %s, correo electrónico %s y teléfono %s (en adelante, «EL COMPRADOR»).",
			b.FullName, b.NationalID, b.Address, b.Email, b.Phone)},
	}
}

func declarationsSection(data *model.ContractData) []Block {
	u, pr := data.Unit, data.Promotion
	return []Block{
		SectionHeading{Text: "EXPONEN"},
		Paragraph{Text: fmt.Sprintf(
			"I. Que EL PROMOTOR está desarrollando la promoción inmobiliaria denominada «%s», sita en %s, %s, al amparo de la licencia de obras %s.",
			pr.Name, pr.Address, pr.City, pr.BuildingLicense)},
		Paragraph{Text: fmt.Sprintf(
			"II. Que EL COMPRADOR está interesado en adquirir la vivienda %s (bloque %s, planta %s, puerta %s), con una superficie útil de %s y construida de %s, con los siguientes anejos: %s.",
			u.Name, u.Block, u.Floor, u.Door, u.UsableArea, u.BuiltArea, data.Economics.AddOns)},
		Paragraph{Text: "III. Que ambas partes, reconociéndose mutuamente la capacidad legal necesaria para obligarse, formalizan el presente contrato de reserva con arreglo a las siguientes"},
		SectionHeading{Text: "CLÁUSULAS"},
	}
}

func clauses(data *model.ContractData, signed bool) []Block {
	e, d := data.Economics, data.Dates

	price := fmt.Sprintf(
		"El precio total de la vivienda y sus anejos asciende a %s, IVA no incluido, lo que supone %s con el IVA vigente incluido.",
		format.Currency(e.Total), format.Currency(e.TaxInclusive))
	if e.Discount.IsPositive() {
		price += fmt.Sprintf(" Dicho precio ya incorpora un descuento de %s.", format.Currency(e.Discount))
	}

	integrity := fmt.Sprintf(
		"El presente documento constituye la totalidad de lo acordado entre las partes y queda identificado con el código %s. Cualquier alteración posterior de su contenido lo invalida.",
		data.Number)
	if signed {
		integrity += " Su integridad queda garantizada mediante la huella criptográfica SHA-256 de la firma registrada, recogida en el certificado de verificación anexo."
	}

	bodies := []struct {
		title string
		body  []string
	}{
		{"OBJETO", []string{
			"EL PROMOTOR reserva a favor de EL COMPRADOR la vivienda descrita en el expositivo II, comprometiéndose a no ofrecerla a terceros mientras el presente contrato se encuentre en vigor.",
		}},
		{"PRECIO", []string{price}},
		{"CANTIDAD ENTREGADA A CUENTA", []string{fmt.Sprintf(
			"En este acto EL COMPRADOR entrega la cantidad de %s, equivalente al %s del precio total, en concepto de reserva y a cuenta del precio final. Dicha cantidad se descontará del importe a satisfacer en el contrato de arras.",
			format.Currency(e.ReservationAmount), format.Percent(e.Percentage))}},
		{"PLAZOS", []string{fmt.Sprintf(
			"Las partes se obligan a suscribir el contrato de arras como máximo el %s. La escritura pública de compraventa se otorgará ante notario antes del %s, o en la fecha de obtención de la licencia de primera ocupación si esta fuera posterior.",
			format.LongDate(d.ArrasDeadline), format.LongDate(d.NotarizationDeadline))}},
		{"DOCUMENTACIÓN ENTREGADA", []string{
			"EL COMPRADOR declara haber recibido la documentación relacionada en el Anexo II, que forma parte inseparable del presente contrato.",
		}},
		{"DESISTIMIENTO", []string{
			"Si EL COMPRADOR desistiera de la compra antes de la firma del contrato de arras, perderá la cantidad entregada en concepto de reserva. Si fuera EL PROMOTOR quien incumpliera sus obligaciones, devolverá a EL COMPRADOR el doble de la cantidad recibida.",
		}},
		{"GASTOS E IMPUESTOS", []string{
			"Los gastos e impuestos derivados de la compraventa se abonarán conforme a ley. El IVA aplicable será el vigente en la fecha de cada pago, siendo a cargo de EL COMPRADOR.",
		}},
		{"PROTECCIÓN DE DATOS", []string{fmt.Sprintf(
			"Los datos personales de EL COMPRADOR serán tratados por EL PROMOTOR con la única finalidad de gestionar la presente reserva, conforme al Reglamento (UE) 2016/679 y a la Ley Orgánica 3/2018. EL COMPRADOR podrá ejercer sus derechos de acceso, rectificación, supresión y oposición dirigiéndose a %s.",
			data.Promoter.Email)}},
		{"LEGISLACIÓN APLICABLE", []string{fmt.Sprintf(
			"El presente contrato se rige por la legislación española. Para cualquier controversia las partes se someten a los Juzgados y Tribunales de %s.",
			data.Promotion.City)}},
		{"INTEGRIDAD DEL DOCUMENTO", []string{integrity}},
	}

	blocks := make([]Block, 0, len(bodies)+len(DeliveredDocuments))
	for i, c := range bodies {
		blocks = append(blocks, Clause{Ordinal: ordinals[i], Title: c.title, Body: c.body})
		if c.title == "DOCUMENTACIÓN ENTREGADA" {
			for _, doc := range DeliveredDocuments {
				blocks = append(blocks, ListItem{Marker: "•", Text: doc})
			}
		}
	}
	return blocks
}

func signatureBlock(data *model.ContractData, sig *model.SignatureRecord) SignatureArea {
	buyer := SignatureParty{
		Role:   "EL COMPRADOR",
		Name:   data.Buyer.FullName,
		Detail: "DNI/NIE " + data.Buyer.NationalID,
	}
	if sig != nil {
		buyer.Placeholder = SignaturePlaceholder
		if sig.HasImage() {
			buyer.Image = sig.Decoded
		}
	}
	return SignatureArea{
		Promoter: SignatureParty{
			Role:   "EL PROMOTOR",
			Name:   data.Promoter.Representative,
			Detail: "p.p. " + data.Promoter.Name,
		},
		Buyer: buyer,
	}
}

func annexes(data *model.ContractData) []Block {
	u, e := data.Unit, data.Economics
	blocks := []Block{
		Title{Text: "ANEXO I", Subtitle: "Identificación de la vivienda"},
		KeyValue{Key: "Promoción", Value: data.Promotion.Name},
		KeyValue{Key: "Vivienda", Value: u.Name},
		KeyValue{Key: "Bloque", Value: u.Block},
		KeyValue{Key: "Planta", Value: u.Floor},
		KeyValue{Key: "Puerta", Value: u.Door},
		KeyValue{Key: "Superficie útil", Value: u.UsableArea},
		KeyValue{Key: "Superficie construida", Value: u.BuiltArea},
		KeyValue{Key: "Anejos", Value: e.AddOns},
		KeyValue{Key: "Precio total", Value: format.Currency(e.Total)},
		KeyValue{Key: "Precio con IVA", Value: format.Currency(e.TaxInclusive)},
		KeyValue{Key: "Importe de reserva", Value: format.Currency(e.ReservationAmount)},
		Spacer{Height: 6},
		Title{Text: "ANEXO II", Subtitle: "Documentación entregada"},
	}
	for i, doc := range DeliveredDocuments {
		blocks = append(blocks, ListItem{Marker: fmt.Sprintf("%d.", i+1), Text: doc})
	}
	return blocks
}
