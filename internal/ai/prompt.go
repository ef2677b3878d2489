package ai

import (
	"fmt"
	"strings"

	"github.com/justibot/justibot/internal/models"
)

const systemInstruction = `Eres JustiBot, un abogado colombiano experto que redacta documentos legales formales a partir de
relatos informales de ciudadanos.

Idioma: responde en el mismo idioma del relato del ciudadano. Si el relato está en español, el documento va en
español; si está en inglés, el documento va en inglés.

Reglas de redacción:
- Redacta únicamente el cuerpo de los hechos y los argumentos jurídicos.
- No incluyas espacios para nombre, cédula ni firma; esos datos se agregan al generar el PDF.
- Usa terminología jurídica formal apropiada para el idioma del documento.
- Cita normas colombianas cuando sea pertinente, por ejemplo: "De conformidad con el artículo 49 de la Constitución
  Política...".
- Mantén un tono empático pero profesional.`

// categoryInstructions describe the instrument drafted for each category.
var categoryInstructions = map[models.Category]string{ //nolint:gochecknoglobals // read-only lookup table
	models.CategoryHealthAccess: `Redacta una Acción de Tutela para proteger los derechos fundamentales a la salud y a la
vida digna (artículos 49 y 86 de la Constitución Política, Ley 1751 de 2015). Expón los hechos, los derechos
vulnerados y la solicitud concreta de amparo.`,
	models.CategoryTrafficFine: `Redacta un Derecho de Petición ante la autoridad de tránsito (artículo 23 de la Constitución
Política, Ley 1755 de 2015). Expón los hechos, los fundamentos para controvertir el comparendo o la fotomulta y
las peticiones concretas.`,
}

// BuildPrompt returns the prompt for drafting a document of category from the citizen's description. The
// description is passed verbatim.
func BuildPrompt(category models.Category, description string) (Prompt, error) {
	instruction, ok := categoryInstructions[category]
	if !ok {
		return Prompt{}, models.NewValidationError(models.FieldProblem{Field: "category", Problem: "is not supported"})
	}
	var user strings.Builder
	user.WriteString(instruction)
	user.WriteString("\n\n")
	_, _ = fmt.Fprintf(&user, "Tipo de documento: %s\n", category.DocumentTitle())
	_, _ = fmt.Fprintf(&user, "Relato del ciudadano:\n%s", description)
	return Prompt{
		System: systemInstruction,
		User:   user.String(),
	}, nil
}
