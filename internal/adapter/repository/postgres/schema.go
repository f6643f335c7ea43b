package postgres

import _ "embed"

// Schema creates every table the repositories use. It is safe to re-run.
//
//go:embed schema.sql
var Schema string
