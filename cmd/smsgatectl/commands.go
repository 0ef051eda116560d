package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"smsgate/internal/ui/live"
	"smsgate/pkg/smsgate"
)

// SendCmd asks the gate to admit one message.
type SendCmd struct {
	PhoneNumber string `arg:"" name:"phone-number" help:"Destination number."`
}

func (c *SendCmd) Run(env *cmdEnv) error {
	res, err := env.gate.CanSend(env.ctx, c.PhoneNumber)
	if err != nil {
		return err
	}
	label := "allowed"
	if !res.Allowed {
		label = "denied (" + string(res.Reason) + ")"
	}
	return env.printer.result(res.Allowed, label, res.Message, res)
}

// ResetCmd clears all counters.
type ResetCmd struct{}

func (c *ResetCmd) Run(env *cmdEnv) error {
	res, err := env.gate.Reset(env.ctx)
	if err != nil {
		return err
	}
	return env.printer.result(res.Success, "reset", res.Message, res)
}

// RateCmd reports a rate for one number, or the account when no number is given.
type RateCmd struct {
	Phone string `help:"Number to report on; empty reports the whole account."`
	From  string `help:"Window start (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)."`
	To    string `help:"Window end, inclusive."`
}

func (c *RateCmd) Run(env *cmdEnv) error {
	res, err := env.gate.Rate(env.ctx, smsgate.RateQuery{PhoneNumber: c.Phone, FromDate: c.From, ToDate: c.To})
	if err != nil {
		return err
	}
	return printRate(env.printer, res)
}

// AccountRateCmd reports the account-wide rate.
type AccountRateCmd struct {
	From string `help:"Window start (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)."`
	To   string `help:"Window end, inclusive."`
}

func (c *AccountRateCmd) Run(env *cmdEnv) error {
	res, err := env.gate.AccountRate(env.ctx, c.From, c.To)
	if err != nil {
		return err
	}
	return printRate(env.printer, res)
}

func printRate(p printer, res smsgate.RateResult) error {
	label := fmt.Sprintf("%.3f msg/s", res.Rate)
	message := fmt.Sprintf("%s (matched %d)", res.Message, res.Matched)
	if !res.Success {
		label = "failed"
		message = res.Message
	}
	return p.result(res.Success, label, message, res)
}

// UsageCmd shows counters for one number.
type UsageCmd struct {
	PhoneNumber string `arg:"" name:"phone-number" help:"Number to inspect."`
}

func (c *UsageCmd) Run(env *cmdEnv) error {
	res, err := env.gate.Usage(env.ctx, c.PhoneNumber)
	if err != nil {
		return err
	}
	if !res.Success {
		return env.printer.result(false, "failed", res.Message, res)
	}
	message := fmt.Sprintf("%d/%d sent, account %d/%d, %d numbers tracked",
		res.Count, res.MaxPerNumber, res.AccountTotal, res.MaxPerAccount, res.TrackedNumbers)
	return env.printer.result(true, res.PhoneNumber, message, res)
}

// ForgetCmd removes one number's history.
type ForgetCmd struct {
	PhoneNumber string `arg:"" name:"phone-number" help:"Number to forget."`
}

func (c *ForgetCmd) Run(env *cmdEnv) error {
	res, err := env.gate.Forget(env.ctx, c.PhoneNumber)
	if err != nil {
		return err
	}
	label := "removed"
	if !res.Removed {
		label = "untouched"
	}
	return env.printer.result(res.Success, label, res.Message, res)
}

// WatchCmd polls rates on an interval.
type WatchCmd struct {
	Phone    []string      `help:"Numbers to watch alongside the account (repeatable)."`
	From     string        `help:"Window start."`
	To       string        `help:"Window end, inclusive."`
	Interval time.Duration `help:"Poll interval." default:"1s"`
	UI       string        `name:"ui" help:"Display mode (auto, live, plain)." default:"auto" enum:"auto,live,plain"`
	Count    int           `help:"Poll rounds in plain mode." default:"1"`
}

func (c *WatchCmd) Run(env *cmdEnv) error {
	decision, err := resolveUIMode(c.UI, env.out)
	if err != nil {
		return err
	}
	if decision.warning != "" {
		fmt.Fprintln(env.out, decision.warning)
	}
	targets := live.Targets{Numbers: c.Phone, FromDate: c.From, ToDate: c.To}
	if decision.useLive {
		model := live.NewModel(env.ctx, env.gate, live.Options{
			Server:   env.baseURL,
			Targets:  targets,
			Interval: c.Interval,
			NoColor:  env.printer.noColor,
		})
		_, err := tea.NewProgram(model, tea.WithContext(env.ctx), tea.WithOutput(env.out), tea.WithAltScreen()).Run()
		return err
	}
	return c.runPlain(env, targets)
}

func (c *WatchCmd) runPlain(env *cmdEnv, targets live.Targets) error {
	state := live.State{Server: env.baseURL}
	rounds := max(c.Count, 1)
	for i := 0; i < rounds; i++ {
		if i > 0 {
			select {
			case <-env.ctx.Done():
				return nil
			case <-time.After(c.Interval):
			}
		}
		now := time.Now()
		state = live.Reduce(state, now, live.Poll(env.ctx, env.gate, targets))
		if err := live.WritePlain(env.out, state, now); err != nil {
			return err
		}
	}
	if state.Counts.Failed > 0 {
		return errRejected
	}
	return nil
}
