package main

import (
	"flag"
	"fmt"
	"os"

	"codeberg.org/sigterm-de/mvsedit/internal/app"
)

// Injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: mvsedit [-version] [script.mvs.js]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("mvsedit %s (commit %s, built %s)\n", version, commit, date)
		os.Exit(0)
	}
	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(app.Run(version, flag.Arg(0)))
}
