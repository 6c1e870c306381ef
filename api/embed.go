// Package api embeds the HTTP and event contracts of the retail service.
package api

import _ "embed"

// OpenAPI is the HTTP contract served by cmd/api.
//
//go:embed openapi.yaml
var OpenAPI []byte

// AsyncAPI describes the events relayed to Kafka.
//
//go:embed asyncapi.yaml
var AsyncAPI []byte
