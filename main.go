package main

import "tenant-sync/cmd"

func main() {
	cmd.Execute()
}
