package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/pkg/home"
	"github.com/renamekit/renamekit/pkg/logger"
	appserver "github.com/renamekit/renamekit/pkg/server"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("mcp")
}

func main() {
	mgr, err := home.NewManager("")
	if err != nil {
		log.WithError(err).Fatal("Invalid home path")
	}

	app, err := appserver.NewApp(mgr)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}
	defer app.Close()

	s := server.NewMCPServer(
		"renamekit",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	app.RegisterMCPTools(s)

	log.Info("Starting MCP server on stdio")

	if err := server.ServeStdio(s); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}
