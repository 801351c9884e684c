package document

import (
	"fmt"

	"github.com/promociones-residenciales/reservas/backend/model"
	"github.com/promociones-residenciales/reservas/backend/pkg/format"
)

// VerifiedStamp is printed on the certificate page of every signed contract.
const VerifiedStamp = "VERIFICADO"

// CertificateBlocks builds the verification page appended to signed contracts.
func CertificateBlocks(data *model.ContractData, sig *model.SignatureRecord) []Block {
	return []Block{
		Title{Text: "CERTIFICADO DE VERIFICACIÓN DE FIRMA", Subtitle: "Contrato nº " + data.Number},
		SectionHeading{Text: "Identidad del firmante"},
		KeyValue{Key: "Firmante", Value: data.Buyer.FullName},
		KeyValue{Key: "DNI/NIE", Value: data.Buyer.NationalID},
		KeyValue{Key: "Correo electrónico", Value: data.Buyer.Email},
		SectionHeading{Text: "Datos de la firma"},
		KeyValue{Key: "Fecha y hora", Value: format.DateTime(sig.ProcessedAt)},
		KeyValue{Key: "Tipo de firma", Value: sig.Kind.Label()},
		KeyValue{Key: "Huella SHA-256", Value: sig.Hash, Mono: true},
		KeyValue{Key: "Tamaño", Value: format.Bytes(sig.Size)},
		KeyValue{Key: "Formato", Value: sig.Format},
		SectionHeading{Text: "Datos técnicos"},
		KeyValue{Key: "Dirección IP", Value: sig.IP},
		KeyValue{Key: "Navegador", Value: format.Browser(sig.UserAgent)},
		Stamp{
			Text:   VerifiedStamp,
			Detail: fmt.Sprintf("Firma íntegra vinculada al contrato %s", data.Number),
			Color:  ColorSigned,
		},
		Paragraph{Text: "Este certificado acredita que la firma electrónica fue capturada y registrada por el sistema de reservas en la fecha indicada, y que su huella criptográfica coincide con la conservada en el registro de auditoría. La firma tiene la consideración de firma electrónica conforme al Reglamento (UE) nº 910/2014 (eIDAS) y a la Ley 6/2020, reguladora de determinados aspectos de los servicios electrónicos de confianza, y produce plenos efectos jurídicos entre las partes.", Small: true},
	}
}
