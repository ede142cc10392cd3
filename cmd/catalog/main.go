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
	"labpulse/internal/catalog"
	"labpulse/internal/config"
	apperrors "labpulse/internal/errors"
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

	logger, logFile, err := infrastructure.NewLogger(config.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     "text",
		Output:     "file",
		FilePath:   paths.CatalogLog,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}, io.Discard)
	if err != nil {
		app.Fatal(err)
	}
	defer logFile.Close()

	inv, err := catalog.Open(paths.CatalogFile, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		logFile.Close()
		os.Exit(app.ExitCode(err))
	}
	run(os.Stdin, os.Stdout, inv, logger)
}

// run drives the menu until the user exits or input ends
func run(in io.Reader, out io.Writer, inv *catalog.Inventory, logger *slog.Logger) {
	scanner := bufio.NewScanner(in)
	prompt := func(label string) (string, bool) {
		fmt.Fprint(out, label)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for {
		fmt.Fprintln(out, "\n---- Library Inventory Manager ----")
		fmt.Fprintln(out, "1. Add Book")
		fmt.Fprintln(out, "2. Issue Book")
		fmt.Fprintln(out, "3. Return Book")
		fmt.Fprintln(out, "4. View All Books")
		fmt.Fprintln(out, "5. Search Book")
		fmt.Fprintln(out, "6. Exit")

		choice, ok := prompt("Enter your choice: ")
		if !ok {
			fmt.Fprintln(out, "\nExiting...")
			return
		}

		switch choice {
		case "1":
			title, _ := prompt("Enter title: ")
			author, _ := prompt("Enter author: ")
			isbn, _ := prompt("Enter ISBN: ")
			book, err := catalog.NewBook(title, author, isbn)
			if err == nil {
				err = inv.Add(book)
			}
			if err != nil {
				infrastructure.WithError(logger, err).Error("Error in operation")
				fmt.Fprintf(out, "Book not added: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Book added.")
		case "2":
			isbn, _ := prompt("Enter ISBN to issue: ")
			if err := inv.Issue(isbn); err != nil {
				fmt.Fprintln(out, failure(err, "Book unavailable or not found."))
				continue
			}
			fmt.Fprintln(out, "Book issued.")
		case "3":
			isbn, _ := prompt("Enter ISBN to return: ")
			if err := inv.Return(isbn); err != nil {
				fmt.Fprintln(out, failure(err, "Book not found or already available."))
				continue
			}
			fmt.Fprintln(out, "Book returned.")
		case "4":
			fmt.Fprint(out, catalog.Render(inv.All()))
		case "5":
			title, _ := prompt("Enter title to search: ")
			results := inv.SearchByTitle(title)
			if len(results) == 0 {
				fmt.Fprintln(out, "No match found.")
				continue
			}
			fmt.Fprint(out, catalog.Render(results))
		case "6":
			fmt.Fprintln(out, "Exiting...")
			return
		default:
			fmt.Fprintln(out, "Invalid choice. Try again.")
		}
	}
}

// failure picks the console message for a rejected issue or return.
// Persistence problems are reported as such.
func failure(err error, rejected string) string {
	if apperrors.IsType(err, apperrors.ErrTypeStorage) {
		return "An error occurred."
	}
	return rejected
}
