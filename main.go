package main

import cmd "github.com/inference-gateway/operator/cmd"

func main() {
	cmd.Execute()
}
