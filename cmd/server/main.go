package main

import "github.com/zeelus/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
