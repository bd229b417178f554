// Package docs embeds the OpenAPI description served at /docs/openapi.yaml.
package docs

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
