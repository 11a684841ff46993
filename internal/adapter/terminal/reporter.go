package terminal

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"worklog-sync/internal/domain"
	"worklog-sync/internal/migrate"
	"worklog-sync/internal/usecase"
	"worklog-sync/internal/worklog"
)

// Reporter renders progress for the operator. Colors are used only when
// out is a terminal.
type Reporter struct {
	out io.Writer

	title   lipgloss.Style
	section lipgloss.Style
	label   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
}

func NewReporter(out io.Writer) *Reporter {
	r := lipgloss.NewRenderer(out)
	return &Reporter{
		out: out,
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")),
		section: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		label: r.NewStyle().Foreground(lipgloss.Color("241")),
		ok:    r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		bad:   r.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	}
}

func (r *Reporter) rule(width int) string {
	return r.label.Render(strings.Repeat("=", width))
}

func (r *Reporter) heading(text string, width int) {
	fmt.Fprintf(r.out, "\n%s\n%s\n%s\n", r.rule(width), r.title.Render(text), r.rule(width))
}

func hours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// Rejected lists input entries excluded by validation.
func (r *Reporter) Rejected(rejected []worklog.Rejected) {
	if len(rejected) == 0 {
		return
	}
	fmt.Fprintln(r.out, r.warn.Render(fmt.Sprintf("%d entries skipped due to validation errors:", len(rejected))))
	for _, rj := range rejected {
		fmt.Fprintf(r.out, "  %s entry %d:\n", rj.Date, rj.Index)
		for _, e := range rj.Errors {
			fmt.Fprintf(r.out, "    - %s\n", e.Message)
		}
	}
}

// Plan shows how each entry's work package will be resolved.
func (r *Reporter) Plan(p usecase.Plan) {
	r.heading("WORK PACKAGE ANALYSIS - "+p.Date.String(), 60)
	groups := []struct {
		kind  usecase.PlanKind
		title string
	}{
		{usecase.PlanFixedSlot, "SCRUM ENTRIES"},
		{usecase.PlanExistingTask, "EXISTING WORK PACKAGE ENTRIES"},
		{usecase.PlanReuse, "EXISTING WORK PACKAGES FOUND"},
		{usecase.PlanCreate, "NEW WORK PACKAGES TO CREATE"},
		{usecase.PlanNoProject, "ENTRIES WITHOUT A PROJECT ID"},
		{usecase.PlanMissingTask, "WORK PACKAGES NOT FOUND"},
	}
	for _, g := range groups {
		n := p.Count(g.kind)
		if n == 0 {
			continue
		}
		fmt.Fprintf(r.out, "\n%s\n", r.section.Render(fmt.Sprintf("%s (%d):", g.title, n)))
		for _, it := range p.Items {
			if it.Kind != g.kind {
				continue
			}
			fmt.Fprintf(r.out, "  - [%s] %s\n", it.Entry.Project, it.Entry.Subject)
			switch it.Kind {
			case usecase.PlanFixedSlot, usecase.PlanExistingTask:
				if it.Existing != nil && it.Existing.Subject != "" {
					fmt.Fprintf(r.out, "    %s %d (%s)\n", r.label.Render("Work package:"), it.Entry.TaskID, it.Existing.Subject)
				} else {
					fmt.Fprintf(r.out, "    %s %d\n", r.label.Render("Work package:"), it.Entry.TaskID)
				}
			case usecase.PlanReuse:
				fmt.Fprintf(r.out, "    %s %d\n", r.label.Render("Will use existing work package:"), it.Existing.ID)
			case usecase.PlanCreate:
				if it.Options.Comment != "" {
					fmt.Fprintf(r.out, "    %s %s\n", r.label.Render("Comment:"), it.Options.Comment)
				}
				status := it.Options.Status
				if status.ID == 0 {
					status = domain.DefaultStatus
				}
				fmt.Fprintf(r.out, "    %s '%s'\n", r.label.Render("Will create new work package with status"), status.Name)
			case usecase.PlanNoProject:
				fmt.Fprintf(r.out, "    %s\n", r.bad.Render("No project id configured for "+it.Entry.Project))
			case usecase.PlanMissingTask:
				fmt.Fprintf(r.out, "    %s\n", r.bad.Render(fmt.Sprintf("Work package %d does not exist", it.Entry.TaskID)))
			}
		}
	}
	fmt.Fprintf(r.out, "\n%s\n", r.section.Render("SUMMARY:"))
	fmt.Fprintf(r.out, "  SCRUM entries: %d\n", p.Count(usecase.PlanFixedSlot))
	fmt.Fprintf(r.out, "  Existing work package entries: %d\n", p.Count(usecase.PlanExistingTask))
	fmt.Fprintf(r.out, "  Existing work packages (will reuse): %d\n", p.Count(usecase.PlanReuse))
	fmt.Fprintf(r.out, "  New work packages (will create): %d\n", p.Count(usecase.PlanCreate))
	if n := p.Count(usecase.PlanNoProject); n > 0 {
		fmt.Fprintf(r.out, "  Without project id: %d\n", n)
	}
	if n := p.Count(usecase.PlanMissingTask); n > 0 {
		fmt.Fprintf(r.out, "  Work packages not found: %d\n", n)
	}
	fmt.Fprintln(r.out, r.rule(60))
}

// Preview lists the day's timeline before anything is written.
func (r *Reporter) Preview(day domain.DaySchedule) {
	r.heading("WORK LOG ENTRIES PREVIEW - "+day.Date.String(), 60)
	for i, e := range day.Entries {
		fmt.Fprintf(r.out, "%d. [%s] %s\n", i+1, e.Project, e.Subject)
		fmt.Fprintf(r.out, "   Time: %s - %s (%s hrs)\n", e.Start.Format("15:04"), e.End.Format("15:04"), hours(e.Hours))
		fmt.Fprintf(r.out, "   Activity: %s\n", e.Activity)
		switch {
		case e.Kind == domain.KindFixedSlot:
			fmt.Fprintf(r.out, "   Work Package: SCRUM (ID: %d)\n", e.TaskID)
		case !e.NeedsNewTask:
			fmt.Fprintf(r.out, "   Work Package: Existing (ID: %d)\n", e.TaskID)
		}
		fmt.Fprintln(r.out)
	}
	fmt.Fprintf(r.out, "Total hours for %s: %s\n", day.Date, hours(day.TotalHours()))
	fmt.Fprintln(r.out, r.rule(60))
}

// DayResult reports what happened to each entry of a processed day.
func (r *Reporter) DayResult(res usecase.DayResult) {
	for _, o := range res.Submitted {
		fmt.Fprintf(r.out, "%s [%s] %s: time entry %d on work package %d (%s)\n",
			r.ok.Render("✓"), o.Entry.Project, o.Entry.Subject, o.RecordID, o.Entry.TaskID, disposition(o))
	}
	for _, o := range res.Skipped {
		fmt.Fprintf(r.out, "%s [%s] %s: already logged on work package %d, skipped\n",
			r.warn.Render("-"), o.Entry.Project, o.Entry.Subject, o.Entry.TaskID)
	}
	for _, o := range res.Failed {
		r.failure(o)
	}
	fmt.Fprintf(r.out, "\n%s\n", r.rule(60))
	fmt.Fprintf(r.out, "SUMMARY: %d successful, %d skipped, %d failed\n", len(res.Submitted), len(res.Skipped), len(res.Failed))
	fmt.Fprintln(r.out, r.rule(60))
}

func disposition(o domain.Outcome) string {
	if o.Task == nil {
		return string(domain.DispositionExisting)
	}
	return string(o.Task.Disposition)
}

func (r *Reporter) failure(o domain.Outcome) {
	fmt.Fprintf(r.out, "%s [%s] %s\n", r.bad.Render("✗"), o.Entry.Project, o.Entry.Subject)
	var se *usecase.SubmissionError
	if errors.As(o.Err, &se) {
		fmt.Fprintf(r.out, "    %s %s\n", r.label.Render("failed at"), se.Stage)
		for _, m := range se.Messages() {
			fmt.Fprintf(r.out, "    - %s\n", m)
		}
		return
	}
	if o.Err != nil {
		fmt.Fprintf(r.out, "    - %s\n", o.Err)
	}
}

// Retried reports the retry pass.
func (r *Reporter) Retried(outcomes []domain.Outcome) {
	for _, o := range outcomes {
		if o.Status == domain.StatusSubmitted {
			fmt.Fprintf(r.out, "%s Success on retry: %s\n", r.ok.Render("✓"), o.Entry.Subject)
			continue
		}
		fmt.Fprintf(r.out, "%s Failed again: %s\n", r.bad.Render("✗"), o.Entry.Subject)
	}
}

// Summary closes a run.
func (r *Reporter) Summary(s usecase.Summary) {
	r.heading("ALL DATES PROCESSED", 80)
	fmt.Fprintf(r.out, "Dates: %d (declined %d)\n", s.Days, s.Declined)
	fmt.Fprintf(r.out, "Submitted: %s\n", r.ok.Render(strconv.Itoa(s.Submitted)))
	fmt.Fprintf(r.out, "Skipped (already logged): %d\n", s.Skipped)
	failed := strconv.Itoa(s.Failed)
	if s.Failed > 0 {
		failed = r.bad.Render(failed)
	}
	fmt.Fprintf(r.out, "Failed: %s\n", failed)
	if s.Rejected > 0 {
		fmt.Fprintf(r.out, "Rejected input entries: %s\n", r.warn.Render(strconv.Itoa(s.Rejected)))
	}
}

// History prints journal rows, newest first.
func (r *Reporter) History(rows []domain.JournalRow) {
	if len(rows) == 0 {
		fmt.Fprintln(r.out, "Journal is empty.")
		return
	}
	fmt.Fprintln(r.out, r.section.Render(fmt.Sprintf("%-19s  %-10s  %-3s  %-9s  %-7s  %s", "RECORDED", "DATE", "#", "STATUS", "TASK", "ENTRY")))
	for _, row := range rows {
		task := "-"
		if row.TaskID != nil {
			task = strconv.FormatInt(*row.TaskID, 10)
		}
		status := row.Status
		if row.Attempt > 1 {
			status += "*"
		}
		line := fmt.Sprintf("%-19s  %-10s  %-3d  %-9s  %-7s  [%s] %s (%s hrs)",
			row.RecordedAt.Local().Format("2006-01-02 15:04:05"), row.SpentOn, row.Index, status, task, row.Project, row.Subject, hours(row.Hours))
		switch domain.OutcomeStatus(row.Status) {
		case domain.StatusFailed:
			line = r.bad.Render(line)
		case domain.StatusSkipped:
			line = r.warn.Render(line)
		}
		fmt.Fprintln(r.out, line)
		if row.Error != "" {
			fmt.Fprintf(r.out, "    %s\n", strings.ReplaceAll(row.Error, "\n", "\n    "))
		}
	}
}

// Schema prints the MySQL journal schema state.
func (r *Reporter) Schema(st migrate.Status) {
	if st.UpToDate() {
		fmt.Fprintf(r.out, "%s version %d (up to date)\n", r.label.Render("Journal schema:"), st.Current())
		return
	}
	fmt.Fprintln(r.out, r.warn.Render(fmt.Sprintf("Journal schema: version %d, %d migration(s) pending; the next run applies them", st.Current(), len(st.Pending))))
	for _, m := range st.Pending {
		fmt.Fprintf(r.out, "  - %s\n", m.Name)
	}
}

// Check prints a connectivity report.
func (r *Reporter) Check(rep usecase.CheckReport) {
	r.heading("OPENPROJECT CONNECTIVITY CHECK", 60)
	fmt.Fprintf(r.out, "%s Connected as %s (ID: %d)\n", r.ok.Render("✓"), rep.User.Name, rep.User.ID)

	fmt.Fprintf(r.out, "\n%s\n", r.section.Render("Configured projects:"))
	for _, p := range rep.Projects {
		if p.Err != nil {
			fmt.Fprintf(r.out, "  %s %s (ID: %d): %v\n", r.bad.Render("✗"), p.Name, p.ID, p.Err)
			continue
		}
		fmt.Fprintf(r.out, "  %s %s (ID: %d) -> %s\n", r.ok.Render("✓"), p.Name, p.ID, p.Remote.Name)
	}
	fmt.Fprintf(r.out, "  %d of %d accessible\n", rep.Accessible(), len(rep.Projects))

	fmt.Fprintf(r.out, "\n%s\n", r.section.Render("Users:"))
	for _, u := range rep.Users {
		switch {
		case u.ID == 0:
			fmt.Fprintf(r.out, "  %s %s: not configured\n", r.warn.Render("-"), u.Role)
		case u.Err != nil:
			fmt.Fprintf(r.out, "  %s %s (ID: %d): %v\n", r.bad.Render("✗"), u.Role, u.ID, u.Err)
		default:
			fmt.Fprintf(r.out, "  %s %s: %s (ID: %d)\n", r.ok.Render("✓"), u.Role, u.User.Name, u.ID)
		}
	}

	fmt.Fprintf(r.out, "\n%s\n", r.section.Render("Permissions:"))
	fmt.Fprintf(r.out, "  create work packages: %s\n", r.yesNo(rep.CanCreateTask))
	fmt.Fprintf(r.out, "  log time: %s\n", r.yesNo(rep.CanLogTime))

	if lines := rep.SuggestedMappings(); len(lines) > 0 {
		fmt.Fprintf(r.out, "\n%s\n", r.section.Render("Suggested mappings.yaml projects:"))
		fmt.Fprintln(r.out, "projects:")
		for _, l := range lines {
			fmt.Fprintf(r.out, "  %s\n", l)
		}
	}
}

func (r *Reporter) yesNo(ok bool) string {
	if ok {
		return r.ok.Render("yes")
	}
	return r.bad.Render("no")
}

// Schedules prints computed timelines without contacting the server.
func (r *Reporter) Schedules(days []domain.DaySchedule) {
	for _, d := range days {
		r.Preview(d)
	}
}
