package main

import "github.com/mj1618/bear-mcp/cmd"

func main() {
	cmd.Execute()
}
