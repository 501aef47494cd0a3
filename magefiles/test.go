//go:build mage

package main

import (
	"os"
)

// Runs the whole test suite.
func Test() error {
	if _, err := executeCmd("go", withArgs("test", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Removes build outputs and translated shaders.
func Clean() error {
	for _, dir := range []string{"bin", "assets/shaders/bin"} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}
