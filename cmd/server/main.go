package main

import (
	"github.com/readingbooks/backend/internal/server"
	"github.com/readingbooks/backend/internal/util"
	"github.com/readingbooks/backend/pkg/logger"
	"github.com/readingbooks/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
