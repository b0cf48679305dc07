package main

import (
	"github.com/idletap/tapgame-go/internal/cli"
)

func main() {
	cli.Execute()
}
