package main

import "github.com/hoelzer/varVAMP/cmd"

func main() {
	cmd.Execute()
}
