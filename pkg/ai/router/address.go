package router

import (
	"med-agent-be/pkg/textnorm"
)

var streetKeywords = []string{
	" calle ", " avenida ", " av ", " avda ", " pasaje ", " camino ", " direccion ", " numero ",
	" street ", " st ", " avenue ", " ave ", " road ", " rd ", " boulevard ", " blvd ", " address ",
}

// LooksLikeAddress reports whether text names a street. A bare number, as in
// "open 24 hours" or "top 10", is not enough.
func LooksLikeAddress(text string) bool {
	return textnorm.ContainsAny(" "+textnorm.Normalize(text)+" ", streetKeywords)
}
