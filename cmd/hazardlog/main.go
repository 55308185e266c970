package main

import "hazardlog/internal/cmd"

func main() {
	cmd.Execute()
}
