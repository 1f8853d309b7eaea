package main

import "github.com/khrees2412/jobharvest/cmd"

func main() {
	cmd.Execute()
}
