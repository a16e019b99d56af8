package server

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed openapi.json
var openAPIDoc string

type apiDoc struct{}

func (apiDoc) ReadDoc() string { return openAPIDoc }

func init() {
	swag.Register(swag.Name, apiDoc{})
}
