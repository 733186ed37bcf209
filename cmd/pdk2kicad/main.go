package main

import "github.com/OpenTraceLab/pdk2kicad/cmd/pdk2kicad/cmd"

func main() {
	cmd.Execute()
}
