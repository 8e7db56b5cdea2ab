package main

import "github.com/openrecords/foiad/cmd"

func main() {
	cmd.Execute()
}
