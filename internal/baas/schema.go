package baas

import _ "embed"

// Schema is the SQL that provisions the tables and functions Store relies on.
//
//go:embed schema.sql
var Schema string
