package main

import "github.com/groveale/copilot-usage-scraper/cmd"

func main() {
	cmd.Execute()
}
