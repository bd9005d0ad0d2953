package main

import "github.com/kozaktomas/collection-sync/cmd"

func main() {
	cmd.Execute()
}
