// Package repository define las entidades del dominio y las interfaces de
// persistencia. Los adapters concretos viven en internal/store; los services
// solo conocen estas interfaces y los errores sentinel de errors.go.
package repository
