package swagger

import (
	_ "embed"
)

//go:embed openapi.json
var openapiSpec []byte

// Spec возвращает встроенную OpenAPI спецификацию
func Spec() []byte {
	return openapiSpec
}
