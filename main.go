package main

import "vol-scanner/internal/cli"

func main() {
	cli.Execute()
}
