package document

import "github.com/promociones-residenciales/reservas/backend/model"

// Renderer turns contract data into PDF bytes.
type Renderer struct {
	engine *Engine
}

func NewRenderer(opts Options) *Renderer {
	return &Renderer{engine: NewEngine(opts)}
}

// Render produces the unsigned contract when sig is nil, the signed one otherwise.
func (r *Renderer) Render(data *model.ContractData, sig *model.SignatureRecord) ([]byte, error) {
	return r.engine.Render(ContractDocument(data, sig))
}
