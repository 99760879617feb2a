package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"booking-escalator/internal/engine"
)

// Environment variables set by function runtimes that pass event data
// outside the request body.
const (
	envEventData = "APPWRITE_FUNCTION_EVENT_DATA"
	envEvent     = "APPWRITE_FUNCTION_EVENT"
	envTrigger   = "APPWRITE_FUNCTION_TRIGGER"
)

var errInvocationFailed = errors.New("invocation failed")

type invokeFlags struct {
	body     string
	bodyFile string
	payload  string
	event    string
	trigger  string
}

func newInvokeCommand(rt *runtimeState) *cobra.Command {
	f := &invokeFlags{}
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Process a single document create event and print the JSON response",
		Long: `Process one event without starting a server.

The raw body comes from --body or --body-file ("-" reads stdin). When it is
blank the legacy payload from --payload or $` + envEventData + ` is used.
Exits with status 1 when the invocation fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.invoke(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.body, "body", "", "raw request body")
	cmd.Flags().StringVar(&f.bodyFile, "body-file", "", `file holding the raw request body ("-" for stdin)`)
	cmd.Flags().StringVar(&f.payload, "payload", os.Getenv(envEventData), "legacy event payload")
	cmd.Flags().StringVar(&f.event, "event", os.Getenv(envEvent), "platform event name")
	cmd.Flags().StringVar(&f.trigger, "trigger", os.Getenv(envTrigger), "how the function was triggered")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")
	return cmd
}

func (rt *runtimeState) invoke(cmd *cobra.Command, f *invokeFlags) error {
	_, zl, guard, err := rt.setup()
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	log := zl.Sugar()

	body := f.body
	if f.bodyFile != "" {
		raw, err := readBodyFile(cmd.InOrStdin(), f.bodyFile)
		if err != nil {
			return err
		}
		body = raw
	}

	esc := engine.NewEscalator(rt.opts.LoadFunction, rt.opts.NewUpdater,
		engine.WithGuard(guard),
		engine.WithLogger(log),
	)
	res := esc.Handle(cmd.Context(), &engine.Request{
		BodyRaw:  body,
		Payload:  f.payload,
		Event:    f.event,
		Trigger:  f.trigger,
		Reporter: engine.NewReporter(log),
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	if err := enc.Encode(res.Response); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if !res.Response.Success {
		return errInvocationFailed
	}
	return nil
}

func readBodyFile(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read body file: %w", err)
	}
	return string(raw), nil
}
