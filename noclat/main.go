// Package main is the entry of the noclat command-line tool.
package main

import "github.com/sarchlab/noclat/noclat/cmd"

func main() {
	cmd.Execute()
}
