package main

import (
	"os"
	"path/filepath"

	"github.com/alexej-v/varlink_cli/app"
)

func main() {
	os.Exit(app.Run(filepath.Base(os.Args[0]), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
