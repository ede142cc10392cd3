package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"labpulse/internal/app"
	"labpulse/internal/config"
	apperrors "labpulse/internal/errors"
	"labpulse/internal/gradebook"
	"labpulse/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file")
	baseDir := flag.String("base", "", "directory relative paths are resolved against")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		app.Fatal(apperrors.NewConfigError("failed to load configuration", err))
	}
	paths, err := config.GetPaths(cfg, *baseDir)
	if err != nil {
		app.Fatal(apperrors.NewConfigError("failed to resolve paths", err))
	}
	if err := paths.EnsureDirectories(); err != nil {
		app.Fatal(err)
	}

	logCfg := cfg.Logging
	logCfg.Output = "file"
	logCfg.FilePath = paths.LogFile
	logger, logFile, err := infrastructure.NewLogger(logCfg, io.Discard)
	if err != nil {
		app.Fatal(err)
	}
	defer logFile.Close()
	logger = infrastructure.WithComponent(logger, "gradebook")

	book := gradebook.New(paths.GradebookFile, logger)
	run(os.Stdin, os.Stdout, book, logger)
}

// run drives the menu until the user exits or input ends
func run(in io.Reader, out io.Writer, book *gradebook.Book, logger *slog.Logger) {
	scanner := bufio.NewScanner(in)
	prompt := func(label string) (string, bool) {
		fmt.Fprint(out, label)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	fmt.Fprintln(out, "Welcome to GradeBook")
	for {
		fmt.Fprintln(out, "\n1. Add Data")
		fmt.Fprintln(out, "2. Show Data")
		fmt.Fprintln(out, "3. Exit")
		choice, ok := prompt("Enter your choice: ")
		if !ok {
			fmt.Fprintln(out, "\nGoodbye!")
			return
		}

		switch choice {
		case "1":
			entries, more := readEntries(out, prompt)
			if len(entries) > 0 {
				fmt.Fprint(out, "\n"+gradebook.RenderTable(gradebook.Rows(entries)))
				if err := book.Append(entries); err != nil {
					infrastructure.WithError(logger, err).Error("Failed to save marks")
					fmt.Fprintf(out, "\nCould not save marks: %v\n", err)
				} else {
					fmt.Fprintln(out, "\nSaved to marks.csv")
				}
			}
			if !more {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
		case "2":
			show(out, book)
		case "3":
			fmt.Fprintln(out, "Goodbye!")
			return
		default:
			fmt.Fprintln(out, "Invalid choice, try again.")
		}
	}
}

// readEntries collects students until "done". The second result is false
// when input ended.
func readEntries(out io.Writer, prompt func(string) (string, bool)) ([]gradebook.Entry, bool) {
	var entries []gradebook.Entry
	for {
		name, ok := prompt("\nEnter student name (or 'done' to stop): ")
		if !ok {
			return entries, false
		}
		if strings.EqualFold(name, "done") {
			return entries, true
		}

		marks := make([]string, gradebook.Subjects)
		for i := range marks {
			if marks[i], ok = prompt(fmt.Sprintf("Marks in Subject %d: ", i+1)); !ok {
				return entries, false
			}
		}

		entry, err := gradebook.NewEntry(name, marks...)
		if err != nil {
			fmt.Fprintf(out, "Invalid entry skipped: %v\n", err)
			continue
		}
		entries = append(entries, entry)
	}
}

func show(out io.Writer, book *gradebook.Book) {
	rows, err := book.View()
	switch {
	case apperrors.IsType(err, apperrors.ErrTypeNotFound):
		fmt.Fprintln(out, "\n"+gradebook.MsgNotFound)
	case err != nil:
		fmt.Fprintf(out, "\nCould not read marks: %v\n", err)
	case len(rows) == 0:
		fmt.Fprintln(out, "\n"+gradebook.MsgNoData)
	default:
		fmt.Fprint(out, "\n"+gradebook.RenderTable(rows))
	}
}
