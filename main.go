package main

import "github.com/drgolem/wvmem/cmd"

func main() {
	cmd.Execute()
}
