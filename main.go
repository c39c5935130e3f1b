package main

import (
	"runtime"

	"imagededup/cmd"
	"imagededup/signalhandler"
)

func main() {
	runtime.GOMAXPROCS(signalhandler.GetOptimalProcs())
	cmd.Execute()
}
