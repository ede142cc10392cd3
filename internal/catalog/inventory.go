package catalog

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	apperrors "labpulse/internal/errors"
	"labpulse/internal/files"
)

// MsgEmpty is shown when the catalog has no books
const MsgEmpty = "No books in inventory."

// Inventory is the catalog loaded from one JSON file. Every successful
// mutation is written back before it returns.
type Inventory struct {
	path    string
	books   []*Book
	manager *files.Manager
	logger  *slog.Logger
}

// Open loads the catalog at path. A missing file starts an empty catalog
// that is created on the first save.
func Open(path string, logger *slog.Logger) (*Inventory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	inv := &Inventory{path: path, manager: files.NewManager(logger), logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("Catalog file not found. Creating new one.", slog.String("file", path))
			return inv, nil
		}
		return nil, apperrors.NewStorageError("failed to read catalog", err).WithContext("file", path)
	}

	if err := json.Unmarshal(data, &inv.books); err != nil {
		logger.Error("Error loading catalog", slog.String("file", path), slog.String("error", err.Error()))
		return nil, apperrors.NewParsingError("failed to decode catalog", err).WithContext("file", path)
	}
	for i, b := range inv.books {
		if b == nil {
			return nil, apperrors.NewParsingError("catalog entry is null", nil).
				WithContext("file", path).WithContext("entry", i)
		}
		if b.Status == "" {
			b.Status = StatusAvailable
		}
		if err := b.Validate(); err != nil {
			logger.Error("Invalid catalog entry", slog.String("file", path), slog.Int("entry", i), slog.String("error", err.Error()))
			return nil, apperrors.NewParsingError("invalid catalog entry", err).
				WithContext("file", path).WithContext("entry", i)
		}
	}

	logger.Info("Loaded catalog", slog.String("file", path), slog.Int("books", len(inv.books)))
	return inv, nil
}

// Save writes the catalog as indented JSON
func (inv *Inventory) Save() error {
	books := inv.books
	if books == nil {
		books = []*Book{}
	}
	data, err := json.MarshalIndent(books, "", "    ")
	if err != nil {
		return apperrors.NewStorageError("failed to encode catalog", err)
	}
	if err := inv.manager.WriteFile(inv.path, data); err != nil {
		inv.logger.Error("Error saving catalog", slog.String("file", inv.path), slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to save catalog", err).WithContext("file", inv.path)
	}
	return nil
}

// Add validates b and appends it. ISBNs are unique within the catalog.
func (inv *Inventory) Add(b *Book) error {
	if b.Status == "" {
		b.Status = StatusAvailable
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if _, ok := inv.find(b.ISBN); ok {
		return apperrors.NewValidationError("duplicate ISBN "+b.ISBN, nil).WithContext("isbn", b.ISBN)
	}

	inv.books = append(inv.books, b)
	if err := inv.Save(); err != nil {
		inv.books = inv.books[:len(inv.books)-1]
		return err
	}
	inv.logger.Info("Book added", slog.String("isbn", b.ISBN), slog.String("title", b.Title))
	return nil
}

// Issue lends the book with isbn
func (inv *Inventory) Issue(isbn string) error {
	return inv.transition(isbn, "Book issued", (*Book).Issue, (*Book).Return)
}

// Return takes back the book with isbn
func (inv *Inventory) Return(isbn string) error {
	return inv.transition(isbn, "Book returned", (*Book).Return, (*Book).Issue)
}

// transition applies apply to the book and persists it, rolling back with
// undo when the save fails
func (inv *Inventory) transition(isbn, msg string, apply, undo func(*Book) error) error {
	b, ok := inv.find(isbn)
	if !ok {
		inv.logger.Warn("Book not found", slog.String("isbn", isbn))
		return apperrors.NewNotFoundError("book " + isbn)
	}
	if err := apply(b); err != nil {
		inv.logger.Warn("Rejected transition", slog.String("isbn", isbn), slog.String("error", err.Error()))
		return err
	}
	if err := inv.Save(); err != nil {
		_ = undo(b)
		return err
	}
	inv.logger.Info(msg, slog.String("isbn", isbn))
	return nil
}

// SearchByTitle returns copies of the books whose title contains query,
// ignoring case
func (inv *Inventory) SearchByTitle(query string) []Book {
	q := strings.ToLower(query)
	var out []Book
	for _, b := range inv.books {
		if strings.Contains(strings.ToLower(b.Title), q) {
			out = append(out, *b)
		}
	}
	return out
}

// FindByISBN returns a copy of the book with exactly isbn
func (inv *Inventory) FindByISBN(isbn string) (Book, bool) {
	b, ok := inv.find(isbn)
	if !ok {
		return Book{}, false
	}
	return *b, true
}

// All returns copies of every book in catalog order
func (inv *Inventory) All() []Book {
	out := make([]Book, len(inv.books))
	for i, b := range inv.books {
		out[i] = *b
	}
	return out
}

// Len returns the number of books
func (inv *Inventory) Len() int {
	return len(inv.books)
}

func (inv *Inventory) find(isbn string) (*Book, bool) {
	for _, b := range inv.books {
		if b.ISBN == isbn {
			return b, true
		}
	}
	return nil, false
}

// Render lists books one per line, or MsgEmpty
func Render(books []Book) string {
	if len(books) == 0 {
		return MsgEmpty + "\n"
	}
	var sb strings.Builder
	for i := range books {
		sb.WriteString(books[i].String())
		sb.WriteString("\n")
	}
	return sb.String()
}
