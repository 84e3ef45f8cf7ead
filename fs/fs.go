// Package appfs embeds the files shipped with the binaries: SQL migrations, email templates & assets.
package appfs

import "embed"

//go:embed assets migrations templates/email/*
var FS embed.FS
