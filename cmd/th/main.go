package main

import "teahouse/cmd/th/root"

func main() {
	root.Execute()
}
