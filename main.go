package main

import (
	"github/chapool/go-chapay/cmd"
)

func main() {
	cmd.Execute()
}
