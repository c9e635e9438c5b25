package main

import "github.com/jrsteele09/setlist-gate/cmd/server/cmd"

func main() {
	cmd.Execute()
}
