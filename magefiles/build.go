//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the demo application into bin/basalto.
func (Build) Engine() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/basalto", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the shader translator CLI into bin/shaderc.
func (Build) Shaderc() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/shaderc", "./cmd/shaderc"), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds both binaries.
func (Build) All() {
	mg.Deps(Build.Engine, Build.Shaderc)
}

// Translates every shader under assets/shaders with our own CLI.
func (Build) Shaders() error {
	mg.Deps(Build.Shaderc)
	if _, err := executeCmd("bin/shaderc", withArgs("-out", "assets/shaders/bin", "assets/shaders"), withStream()); err != nil {
		return err
	}
	return nil
}
