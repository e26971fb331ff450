package main

import "github.com/bgraf/optimizehtml/cmd"

func main() {
	cmd.Execute()
}
