// Command startgap generates memory traces, replays them through a
// Start-Gap wear-leveled device, and compares the resulting wear.
package main

import (
	"github.com/tebeka/atexit"
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
