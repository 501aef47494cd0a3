//go:build shipping

package core

const defaultBuild = BuildShipping
