package server

import (
	"github.com/raysh454/netshield/internal/app"
	"github.com/raysh454/netshield/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address; empty falls back to
	// AppConfig.ListenAddr.
	ListenAddr string

	AppConfig *app.Config
	Logger    logging.Logger

	// Service is used as-is when set (tests, embedding). Otherwise NewServer
	// builds one from AppConfig and closes it with the server.
	Service *app.Service
}
