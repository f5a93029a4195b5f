package main

import (
	"os"
	"strconv"
)

// columnsEnv reads the COLUMNS variable exported by most shells.
func columnsEnv() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return 0
}
