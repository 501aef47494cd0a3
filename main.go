/*
This is an example application that drives the engine package with the
testbed game.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/basalto/engine"
	"github.com/spaghettifunk/basalto/engine/core"
	"github.com/spaghettifunk/basalto/testbed"
)

func main() {
	cfg, err := engine.LoadConfig("basalto.toml")
	if err != nil {
		core.LogFatal(err.Error())
	}

	app, err := engine.New(cfg, testbed.NewTestGame())
	if err != nil {
		core.LogFatal(err.Error())
	}

	if err := app.Initialize(); err != nil {
		_ = app.Shutdown()
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		app.Quit()
	}()

	if err := app.Run(); err != nil {
		core.LogFatal(err.Error())
	}

	if err := app.Shutdown(); err != nil {
		core.LogError(err.Error())
	}
}
