// Package terminal talks to the operator on a line-oriented terminal.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"worklog-sync/internal/domain"
	"worklog-sync/internal/worklog"
)

// ErrInputClosed is returned when input ends while a question is pending.
var ErrInputClosed = errors.New("input closed")

// Prompter implements ports.Prompter by reading answers line by line.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	// DayStart is shown as the default start time.
	DayStart domain.Clock
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, DayStart: domain.DayStart}
}

func (p *Prompter) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			fmt.Fprintln(p.out)
			return "", ErrInputClosed
		}
	}
	return strings.TrimSpace(line), nil
}

// Confirm accepts only y or n.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		answer, err := p.ask(ctx, question+" (y/n): ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please enter 'y' for yes or 'n' for no.")
	}
}

// StartTime asks for the first task's start; an empty answer keeps the
// default.
func (p *Prompter) StartTime(ctx context.Context, date domain.Date) (domain.Clock, bool, error) {
	fmt.Fprintf(p.out, "\nStart time for the first task on %s (%s)\n", date, date.Long())
	for {
		answer, err := p.ask(ctx, fmt.Sprintf("Enter start time (e.g., 9:00 AM, 09:30, 14:30) or press Enter for %s: ", worklog.FormatClock(p.DayStart)))
		if err != nil {
			return domain.Clock{}, false, err
		}
		if answer == "" {
			return domain.Clock{}, false, nil
		}
		c, err := worklog.ParseClock(answer)
		if err == nil {
			return c, true, nil
		}
		fmt.Fprintf(p.out, "Invalid time format: %v\n", err)
		fmt.Fprintln(p.out, "Please use formats like: 9:00 AM, 2:30 PM, 09:00, 14:30")
	}
}

// TaskComment asks for an optional description of a new work package.
func (p *Prompter) TaskComment(ctx context.Context, e domain.ScheduledEntry) (string, error) {
	fmt.Fprintf(p.out, "\nNew work package: [%s] %s\n", e.Project, e.Subject)
	return p.ask(ctx, "Enter comment (or press Enter to skip): ")
}

// TaskStatus offers the status menu; Enter picks the default.
func (p *Prompter) TaskStatus(ctx context.Context, e domain.ScheduledEntry) (domain.Status, error) {
	fmt.Fprintln(p.out, "Available statuses:")
	for i, s := range domain.Statuses {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, s.Name)
	}
	prompt := fmt.Sprintf("Select status (1-%d, or press Enter for '%s'): ", len(domain.Statuses), domain.DefaultStatus.Name)
	for {
		answer, err := p.ask(ctx, prompt)
		if err != nil {
			return domain.Status{}, err
		}
		if answer == "" {
			return domain.DefaultStatus, nil
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(domain.Statuses) {
			s := domain.Statuses[n-1]
			fmt.Fprintf(p.out, "Selected status: %s\n", s.Name)
			return s, nil
		}
		fmt.Fprintf(p.out, "Invalid choice. Please select 1-%d or press Enter for default.\n", len(domain.Statuses))
	}
}
