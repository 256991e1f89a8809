package main

import "cleanstreak/cmd/cst/root"

func main() {
	root.Execute()
}
