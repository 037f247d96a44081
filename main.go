package main

import "github.com/github-tools/github-org-stats/cmd"

func main() {
	cmd.Execute()
}
