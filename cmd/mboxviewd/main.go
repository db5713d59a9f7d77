package main

import (
	"flag"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"

	"github.com/emurenMRz/mboxarchive/internal/config"
	"github.com/emurenMRz/mboxarchive/internal/server"
)

func main() {
	var path, addr, configPath string
	flag.StringVar(&path, "path", ".", "path to mbox files")
	flag.StringVar(&addr, "addr", ":8080", "listen address")
	flag.StringVar(&configPath, "config", "", "YAML parser policy")
	flag.Parse()

	policy, err := config.LoadOrDefault(configPath)
	if err != nil {
		grip.EmergencyFatal(err)
	}

	s := server.New(path, policy)
	grip.Info(message.Fields{
		"message": "listening",
		"addr":    addr,
		"path":    path,
	})
	if err := s.ListenAndServe(addr); err != nil {
		grip.EmergencyFatal(errors.Wrap(err, "serving"))
	}
}
