package main

import "github.com/go-drift/keel/cmd/keel/cmd"

func main() {
	cmd.Execute()
}
