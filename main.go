package main

import (
	"github/chapool/token-agent/cmd"
)

func main() {
	cmd.Execute()
}
