package main

import (
	"os"

	"github.com/dreschagin/image-gallery/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
