// Package migrations はユーザーストアのマイグレーションSQLを埋め込みます。
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
