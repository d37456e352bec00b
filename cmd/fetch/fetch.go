package fetch

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/bocfx/cmd/env"
	"github.com/sig-0/bocfx/cmd/setup"
	"github.com/sig-0/bocfx/provider/boc"
	"github.com/sig-0/bocfx/retrieval"
)

const defaultRows = 5

var errInvalidRows = errors.New("invalid row count")

// fetchCfg wraps the fetch configuration
type fetchCfg struct {
	configPath string
	start      string
	end        string
	rows       int
}

// NewFetchCmd creates the fetch command
func NewFetchCmd() *ffcli.Command {
	cfg := &fetchCfg{}

	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "fetch",
		ShortUsage: "fetch [flags]",
		LongHelp:   "Retrieves the BOC USD rate table for a date range, and prints its head",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *fetchCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the TOML configuration, if any",
	)

	fs.StringVar(
		&c.start,
		"start",
		"",
		"the first date of the range (YYYY-MM-DD), defaults to yesterday (Beijing time)",
	)

	fs.StringVar(
		&c.end,
		"end",
		"",
		"the last date of the range (YYYY-MM-DD), defaults to today (Beijing time)",
	)

	fs.IntVar(
		&c.rows,
		"rows",
		defaultRows,
		"the number of leading rows to print",
	)
}

func (c *fetchCfg) exec(ctx context.Context, _ []string) error {
	if c.rows < 0 {
		return errInvalidRows
	}

	start, end, err := dateRange(c.start, c.end, time.Now())
	if err != nil {
		return err
	}

	logger := setup.Logger()

	cfg, err := setup.LoadConfig(logger, c.configPath)
	if err != nil {
		return err
	}

	retriever, err := setup.Retriever(cfg, logger)
	if err != nil {
		return err
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancelFn()

	outcome, err := retriever.Retrieve(runCtx, start, end)
	if outcome != nil {
		renderRows(os.Stdout, outcome, c.rows)
	}

	if err != nil {
		return fmt.Errorf("unable to retrieve rate table, %w", err)
	}

	return nil
}

// dateRange resolves the range flags, in portal time.
// The range defaults to yesterday through today
func dateRange(startRaw, endRaw string, now time.Time) (time.Time, time.Time, error) {
	loc := boc.Location()

	end := now.In(loc)
	if endRaw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, endRaw, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date, %w", err)
		}

		end = parsed
	}

	start := end.AddDate(0, 0, -1)
	if startRaw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, startRaw, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date, %w", err)
		}

		start = parsed
	}

	return start, end, nil
}

// renderRows prints the first n rows of the table, and the retrieval totals
func renderRows(w io.Writer, outcome *retrieval.Outcome, n int) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)

	header := make(table.Row, 0, len(retrieval.Columns))
	for _, c := range retrieval.Columns {
		header = append(header, c)
	}

	t.AppendHeader(header)

	for _, row := range outcome.Rows[:min(n, len(outcome.Rows))] {
		values := make(table.Row, 0, len(retrieval.Columns))
		for _, v := range row.Values() {
			values = append(values, v)
		}

		t.AppendRow(values)
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d rows", len(outcome.Rows)),
		fmt.Sprintf("%d captcha challenges", outcome.Challenges),
		fmt.Sprintf("%d queries", outcome.Submissions),
	})

	t.Render()
}
