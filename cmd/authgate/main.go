package main

import (
	"github.com/mcarden/authgate/internal/cli"
)

func main() {
	cli.Execute()
}
