//go:build !shipping

package core

const defaultBuild = BuildDebug
