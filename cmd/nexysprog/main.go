package main

import "github.com/PierreBizouard/ixo-usb-jtag/cmd/nexysprog/cmd"

func main() {
	cmd.Execute()
}
