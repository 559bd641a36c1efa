package main

import "fx-monitor/internal/cli"

func main() {
	cli.Execute()
}
