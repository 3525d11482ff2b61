package main

import "github.com/kasuboski/moviefind/cmd"

func main() {
	cmd.Execute()
}
