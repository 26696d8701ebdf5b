package main

import "github.com/iksnae/genie/cmd"

func main() {
	cmd.Execute()
}
