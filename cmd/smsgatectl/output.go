package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// printer writes command results either as JSON or as one styled line.
type printer struct {
	w       io.Writer
	json    bool
	noColor bool
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// result prints v and returns errRejected when success is false.
func (p printer) result(success bool, label, message string, v any) error {
	if p.json {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return err
		}
	} else {
		if !p.noColor {
			if success {
				label = okStyle.Render(label)
			} else {
				label = failStyle.Render(label)
			}
		}
		if _, err := fmt.Fprintf(p.w, "%s: %s\n", label, message); err != nil {
			return err
		}
	}
	if !success {
		return errRejected
	}
	return nil
}
