package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"

	"github.com/emurenMRz/mboxarchive/internal/archive"
	"github.com/emurenMRz/mboxarchive/internal/config"
	"github.com/emurenMRz/mboxarchive/internal/mboxheader"
	"github.com/emurenMRz/mboxarchive/internal/parser"
	"github.com/emurenMRz/mboxarchive/internal/server"
)

func main() {
	var (
		mode        = flag.String("mode", "validate", "Operation mode: validate, show, dump")
		inputPath   = flag.String("path", "", "Input mbox file path")
		dir         = flag.String("dir", ".", "Mailbox directory (with -mailbox)")
		mailboxName = flag.String("mailbox", "", "UTF-8 mailbox name, looked up in -dir")
		msgIndex    = flag.Int("msg", -1, "Message index (for show mode)")
		configPath  = flag.String("config", "", "YAML parser policy")
		attachDir   = flag.String("attachments", "", "Write attachments below this directory")
		appendPath  = flag.String("append", "", "Append the input to this mbox file")
		single      = flag.Bool("single", false, "Read the input as one message")
	)
	flag.Parse()

	if *mailboxName != "" {
		file, err := server.DiskName(*mailboxName)
		if err != nil {
			grip.EmergencyFatal(err)
		}
		*inputPath = filepath.Join(*dir, file)
	}
	if *inputPath == "" {
		grip.EmergencyFatal("Error: -path or -mailbox is required")
	}

	policy, err := config.LoadOrDefault(*configPath)
	if err != nil {
		grip.EmergencyFatal(err)
	}
	if *single {
		policy.ReadOne = true
	}

	store := archive.NewMemoryStore()
	p := parser.New(policy, store)
	if *attachDir != "" {
		p.Attachments = &archive.DirAttachments{Dir: *attachDir, UseMeta: policy.UseMeta}
	}
	if *appendPath != "" {
		f, err := os.OpenFile(*appendPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o660)
		if err != nil {
			grip.EmergencyFatal(errors.Wrap(err, "opening append mailbox"))
		}
		defer f.Close()
		if *single {
			mirror := archive.NewMessageMirror(f)
			defer mirror.Close()
			p.Mirror = mirror
		} else {
			p.Mirror = archive.NewMboxMirror(f)
		}
	}

	stats, err := p.ParseFile(*inputPath)
	if err != nil {
		grip.EmergencyFatal(err)
	}
	grip.Info(message.Fields{
		"message":   "parsed",
		"path":      *inputPath,
		"committed": stats.Committed,
		"rejected":  stats.Rejected,
	})

	records := store.Records()
	switch *mode {
	case "validate":
		validateMessages(records)
	case "show":
		showMessage(records, *msgIndex)
	case "dump":
		dumpMessages(records)
	default:
		grip.EmergencyFatal("Error: Unknown mode. Use validate, show, or dump")
	}
}

func validateMessages(records []*parser.Record) {
	var allResults []mboxheader.ValidationResult

	for i, rec := range records {
		results := mboxheader.ValidateHeaders(rec.Header, i)
		if rec.Deleted {
			results = append(results, mboxheader.ValidationResult{
				MsgIndex: i,
				Field:    "Status",
				Status:   mboxheader.StatusDeleted,
			})
		}
		allResults = append(allResults, results...)
		for _, w := range rec.Warnings {
			fmt.Printf("Message %d: %s\n", i, w)
		}
	}

	outputText(allResults)
}

func showMessage(records []*parser.Record, msgIndex int) {
	if msgIndex < 0 || msgIndex >= len(records) {
		grip.EmergencyFatal("Error: Invalid message index")
	}

	rec := records[msgIndex]
	fmt.Printf("Message %d:\n", msgIndex)
	fmt.Print(mboxheader.FormatFields(rec.Header))
	fmt.Println()
	fmt.Print(rec.Text())
	for _, ref := range rec.Attachments {
		fmt.Printf("[attachment %s, %s, %d bytes]\n", ref.Name, ref.ContentType, ref.Size)
	}
}

func dumpMessages(records []*parser.Record) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		grip.EmergencyFatal(errors.Wrap(err, "writing records"))
	}
}

func outputText(results []mboxheader.ValidationResult) {
	if len(results) == 0 {
		fmt.Println("No validation errors found.")
		return
	}

	for _, result := range results {
		switch result.Status {
		case mboxheader.StatusMissing:
			fmt.Printf("Message %d: %s header is missing\n", result.MsgIndex, result.Field)
		case mboxheader.StatusInvalid:
			fmt.Printf("Message %d: %s header is invalid (%s)\n", result.MsgIndex, result.Field, result.Detail)
		case mboxheader.StatusDeleted:
			fmt.Printf("Message %d: marked deleted\n", result.MsgIndex)
		}
	}
}
