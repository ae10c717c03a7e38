// Command todotui is the terminal client for the SimpleTodo API.
//
//	todotui [-config FILE]              interactive task list
//	todotui [-config FILE] export FILE  write tasks to FILE (.csv or .xlsx)
//	todotui [-config FILE] import FILE  create tasks from a CSV file
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/KamilBuksa/SimpleTodo/client"
	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/KamilBuksa/SimpleTodo/tui"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (default: "+tui.DefaultConfigPath()+")")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config FILE] [export FILE | import FILE]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := tui.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Args()); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg tui.Config, args []string) error {
	notes := &client.Recorder{}
	api := client.New(cfg.APIURL, client.WithTimeout(cfg.Timeout.Duration))
	state, err := client.NewTaskState(api, notes)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return runInteractive(ctx, cfg, state, notes)
	}
	if len(args) != 2 {
		flag.Usage()
		return fmt.Errorf("expected a command and a file")
	}

	switch cmd, path := args[0], args[1]; cmd {
	case "export":
		if err := state.Load(ctx, domain.StatusAll); err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		items := state.Items()
		if err := tui.ExportFile(path, items); err != nil {
			return err
		}
		fmt.Printf("Exported %d tasks to %s\n", len(items), path)
	case "import":
		res, err := tui.ImportFile(ctx, state, path)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d tasks, %d failed, %d not marked completed\n", res.Created, res.Failed, res.Incomplete)
		if res.Failed > 0 || res.Incomplete > 0 {
			return fmt.Errorf("%d rows were rejected, %d could not be marked completed", res.Failed, res.Incomplete)
		}
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func runInteractive(ctx context.Context, cfg tui.Config, state *client.TaskState, notes *client.Recorder) error {
	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := log.New(out, "todotui ", log.LstdFlags)
	logger.Printf("connecting to %s", cfg.APIURL)

	p := tea.NewProgram(tui.New(ctx, state, notes, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
