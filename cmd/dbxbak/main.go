package main

import "github.com/dbxbak/dbxbak/internal/cli"

func main() {
	cli.Execute()
}
