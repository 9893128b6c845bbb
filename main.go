package main

import "github.com/tldr-it-stepankutaj/releasekit/cmd/releasekit"

func main() {
	releasekit.Execute()
}
