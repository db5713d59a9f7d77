package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"

	"github.com/emurenMRz/mboxarchive/internal/archive"
	"github.com/emurenMRz/mboxarchive/internal/config"
	"github.com/emurenMRz/mboxarchive/internal/parser"
)

const (
	exitOK       = 0  // EX_OK
	exitTempFail = 75 // EX_TEMPFAIL
)

func main() {
	configPath := flag.String("config", "", "YAML parser policy")
	flag.Parse()
	os.Exit(run(*configPath, flag.Args()))
}

func run(configPath string, args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config policy.yaml] <mbox-file>\n", os.Args[0])
		return exitTempFail
	}
	mboxPath := args[0]

	policy, err := config.LoadOrDefault(configPath)
	if err != nil {
		grip.Error(err)
		return exitTempFail
	}
	policy.ReadOne = true

	f, err := os.OpenFile(mboxPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o660)
	if err != nil {
		grip.Error(message.WrapError(err, message.Fields{
			"message": "cannot open mbox",
			"path":    mboxPath,
		}))
		return exitTempFail
	}
	defer f.Close()

	mirror := archive.NewMessageMirror(f)
	store := archive.NewMemoryStore()
	p := parser.New(policy, store)
	p.Mirror = mirror
	if _, err := p.Parse(os.Stdin); err != nil {
		grip.Error(message.WrapError(err, message.Fields{
			"message": "read error",
		}))
		return exitTempFail
	}
	if err := mirror.Close(); err != nil {
		grip.Error(err)
		return exitTempFail
	}

	for _, rec := range store.Records() {
		grip.Info(message.Fields{
			"message": "appended",
			"path":    mboxPath,
			"msgid":   rec.MsgID,
			"subject": rec.Subject,
		})
	}
	return exitOK
}
