package main

import "github.com/fitpack/dream/cmd"

func main() {
	cmd.Execute()
}
