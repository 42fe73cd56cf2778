package main

import "github.com/orderlens/orderlens/cmd/orderlens/cmd"

func main() {
	cmd.Execute()
}
