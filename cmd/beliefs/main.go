package main

import (
	"fmt"
	"os"

	"github.com/Harshitk-cp/rlbelief/internal/config"
)

func main() {
	_ = config.Load()

	c := &cli{}
	err := newRootCmd(c).Execute()
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
