// Package migrations содержит встроенные SQL-миграции сервиса auth.
package migrations

import "embed"

// Files — *.sql в формате golang-migrate (NNNNNN_name.up.sql / .down.sql).
//
//go:embed *.sql
var Files embed.FS
