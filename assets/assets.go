// Package assets exposes the embedded MVS language definition, declaration
// catalogs, CSS stylesheet and starter script.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed language-specs typings style.css starter.mvs.js
var embedded embed.FS

// LanguageSpec returns the GtkSourceView language definition for MVS scripts.
func LanguageSpec() []byte {
	return mustRead("language-specs/mvs.lang")
}

// Typings returns a sub-filesystem rooted at the typings/ directory.
// The returned fs.FS contains the built-in declaration catalogs.
func Typings() fs.FS {
	sub, err := fs.Sub(embedded, "typings")
	if err != nil {
		panic("assets: sub typings: " + err.Error())
	}
	return sub
}

// StyleCSS returns the contents of the application CSS stylesheet.
func StyleCSS() []byte { return mustRead("style.css") }

// Starter returns the script shown when no file is opened.
func Starter() string { return string(mustRead("starter.mvs.js")) }

func mustRead(name string) []byte {
	data, err := embedded.ReadFile(name)
	if err != nil {
		panic("assets: read " + name + ": " + err.Error())
	}
	return data
}
