package main

import "github.com/crewmark/crewmark/cmd"

func main() {
	cmd.Execute()
}
