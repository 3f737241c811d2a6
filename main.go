package main

import "github.com/varsilias/bubblechat/internal/cli"

func main() {
	cli.Execute()
}
