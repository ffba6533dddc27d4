package main

import "github.com/davarch/deploy-report/cmd/deploy-report/cli"

func main() {
	cli.Execute()
}
