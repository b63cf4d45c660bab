// Package consts defines the constants used by the project
package consts

import (
	log "github.com/sirupsen/logrus"
)

const (
	// TEXTDOMAIN is the gettext domain for l10n of the langpack tool itself.
	TEXTDOMAIN = `langpack`

	// DefaultLogLevel is the default logging level selected without any option.
	DefaultLogLevel = log.WarnLevel

	// DefaultBaseLocale is the source language of the strings found in the code.
	DefaultBaseLocale = "en"

	// ProjectFileName is the default name of the project descriptor.
	ProjectFileName = "langpack.toml"

	// ManifestFileName is the name of the build manifest written next to the outputs of a source set.
	ManifestFileName = "manifest.yaml"

	// TemplateExtension is the file extension of template catalogs.
	TemplateExtension = ".pot"

	// CatalogExtension is the file extension of textual locale catalogs.
	CatalogExtension = ".po"

	// MoExtension is the file extension of GNU binary catalogs.
	MoExtension = ".mo"

	// BinaryCatalogExtension is the file extension of compiled binary catalogs.
	BinaryCatalogExtension = ".lcat"

	// PackExtension is the file extension of compact packs.
	PackExtension = ".lpak"
)

// Version is the version of the tool
//
// It is set at build time using the -ldflags option.
var Version = "Dev"
