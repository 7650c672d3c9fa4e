package main

import "github.com/MeKo-Tech/walang/cmd/walang/cmd"

func main() {
	cmd.Execute()
}
