// Command smsgatectl talks to a running smsgated.
//
// Usage:
//
//	smsgatectl send 15551234567
//	smsgatectl rate --phone 15551234567 --from 2025-02-10 --to "2025-02-13 23:59:59"
//	smsgatectl watch --phone 15551234567 --interval 2s
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"smsgate/pkg/smsgate"
	"smsgate/pkg/smsgate/httpclient"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errRejected marks a command whose result reported success=false. The
// result itself has already been printed.
var errRejected = errors.New("rejected")

// CLI defines the command-line interface.
type CLI struct {
	URL     string        `help:"Base URL of smsgated." default:"http://localhost:5000" env:"SMSGATE_URL"`
	Timeout time.Duration `help:"Per-request timeout." default:"5s"`
	JSON    bool          `help:"Print raw JSON results."`
	Color   string        `help:"Colorize output (auto, always, never)." default:"auto" enum:"auto,always,never"`

	Send        SendCmd        `cmd:"" help:"Ask whether one message may be sent, consuming quota when allowed."`
	Reset       ResetCmd       `cmd:"" help:"Clear all usage counters and history."`
	Rate        RateCmd        `cmd:"" help:"Show messages per second for a number or the whole account."`
	AccountRate AccountRateCmd `cmd:"" name:"account-rate" help:"Show the account-wide messages per second."`
	Usage       UsageCmd       `cmd:"" help:"Show counters for one number."`
	Forget      ForgetCmd      `cmd:"" help:"Drop one number's history."`
	Watch       WatchCmd       `cmd:"" help:"Poll rates and show a live dashboard."`
}

// cmdEnv is bound into every command's Run method.
type cmdEnv struct {
	ctx     context.Context
	gate    smsgate.Gate
	out     io.Writer
	printer printer
	baseURL string
}

// newGate is a test seam for the remote client.
var newGate = func(baseURL string, timeout time.Duration) smsgate.Gate {
	return httpclient.NewWithTimeout(baseURL, timeout)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, executes the selected command and returns an exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cli CLI
	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("smsgatectl"),
		kong.Description("Client for the smsgate admission service."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) {
			if exitCode < 0 {
				exitCode = code
			}
		}),
	)
	if err != nil {
		fmt.Fprintf(stderr, "smsgatectl: %v\n", err)
		return exitError
	}
	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(stderr, "smsgatectl: %v\n", err)
		return exitUsage
	}

	noColor, err := resolveNoColor(cli.Color, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "smsgatectl: %v\n", err)
		return exitUsage
	}
	env := &cmdEnv{
		ctx:     ctx,
		gate:    newGate(cli.URL, cli.Timeout),
		out:     stdout,
		printer: printer{w: stdout, json: cli.JSON, noColor: noColor},
		baseURL: cli.URL,
	}
	if err := kctx.Run(env); err != nil {
		if !errors.Is(err, errRejected) {
			fmt.Fprintf(stderr, "smsgatectl: %v\n", err)
		}
		return exitError
	}
	return exitOK
}
