// Copyright © 2020 Skyline Tools

package main

import (
	"github.com/skylinetools/graft/cmd/graft/cmd"
)

func main() {
	cmd.Execute()
}
