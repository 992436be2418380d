package main

import "github.com/the-insecure-proxy/insecure-proxy/cmd"

func main() {
	cmd.Execute()
}
