package main

import "github.com/KaramelBytes/medclean-cli/cmd"

func main() {
	cmd.Execute()
}
