package main

import "github.com/Tiliavir/rapportini/cmd"

func main() {
	cmd.Execute()
}
