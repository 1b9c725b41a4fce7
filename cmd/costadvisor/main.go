package main

import "cloud-cost-advisor/internal/cli"

func main() {
	cli.Execute()
}
