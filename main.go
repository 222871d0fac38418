package main

import "waste-collector.com/waste-collector/cmd"

func main() {
	cmd.Execute()
}
