package main

import "github.com/nusely/CFLSMS/cmd"

func main() {
	cmd.Execute()
}
