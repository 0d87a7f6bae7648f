package main

import (
	"github.com/karlding/canmsggen/cmd"
)

func main() {
	cmd.Execute()
}
