package cli

import (
	"context"
	"fmt"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/cryptnotes/internal/client/vault"
	"github.com/dmitrijs2005/cryptnotes/internal/filex"
	"github.com/dmitrijs2005/cryptnotes/internal/netx"
	"github.com/fatih/color"
)

const (
	timeLayout = "2006-01-02 15:04"
	exportDir  = "exports"
)

// downloadExport and saveExport are test seams.
var (
	downloadExport = netx.Download
	saveExport     = filex.WriteInSubdir
)

// noteID takes the id from the command arguments or asks for it.
func (a *App) noteID(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return getSimpleText(a.reader, "Enter note ID", a.out)
}

// List prints the notes, most recently updated first.
func (a *App) List(ctx context.Context) error {
	notes, err := a.vault.ListNotes(ctx)
	if err != nil {
		a.fail(err)
		return err
	}
	if len(notes) == 0 {
		a.printf("No notes yet, use 'add' to create one\n")
		return nil
	}
	a.printNotes(notes)
	return nil
}

func (a *App) printNotes(notes []*vault.Note) {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUPDATED\tTITLE")
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, n.UpdatedAt.Local().Format(timeLayout), n.Title)
	}
	w.Flush()

	a.printf("%s", b.String())
}

// Search lists notes whose decrypted title or content contains the term,
// ignoring case. Matching happens here, the server only sees ciphertext.
func (a *App) Search(ctx context.Context, args []string) error {
	term := strings.Join(args, " ")
	if term == "" {
		var err error
		if term, err = getSimpleText(a.reader, "Enter search term", a.out); err != nil {
			return err
		}
	}
	if term == "" {
		a.warn("Usage: search <term>")
		return nil
	}

	notes, err := a.vault.ListNotes(ctx)
	if err != nil {
		a.fail(err)
		return err
	}

	found := matchNotes(notes, term)
	if len(found) == 0 {
		a.printf("No notes match %q\n", term)
		return nil
	}
	a.printNotes(found)
	return nil
}

func matchNotes(notes []*vault.Note, term string) []*vault.Note {
	term = strings.ToLower(term)
	var out []*vault.Note
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), term) || strings.Contains(strings.ToLower(n.Content), term) {
			out = append(out, n)
		}
	}
	return out
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.noteID(args)
	if err != nil {
		return err
	}
	n, err := a.vault.GetNote(ctx, id)
	if err != nil {
		a.fail(err)
		return err
	}

	a.printf("%s\n%s\n\n%s\n",
		color.New(color.Bold).Sprint(n.Title),
		color.HiBlackString("created %s, updated %s", n.CreatedAt.Local().Format(timeLayout), n.UpdatedAt.Local().Format(timeLayout)),
		n.Content)
	return nil
}

func (a *App) Add(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Enter content", a.out)
	if err != nil {
		return err
	}

	n, err := a.vault.CreateNote(ctx, title, content)
	if err != nil {
		a.fail(err)
		return err
	}
	a.success("Note saved: " + n.ID)
	return nil
}

// Edit replaces a note. An empty answer keeps the current value.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.noteID(args)
	if err != nil {
		return err
	}
	cur, err := a.vault.GetNote(ctx, id)
	if err != nil {
		a.fail(err)
		return err
	}

	title, err := getSimpleText(a.reader, fmt.Sprintf("Enter title (empty keeps %q, %q clears)", cur.Title, clearField), a.out)
	if err != nil {
		return err
	}
	title = editedField(title, cur.Title)

	content, err := GetMultiline(a.reader, fmt.Sprintf("Enter content (empty keeps current, %q clears)", clearField), a.out)
	if err != nil {
		return err
	}
	content = editedField(content, cur.Content)

	if _, err := a.vault.UpdateNote(ctx, id, title, content); err != nil {
		a.fail(err)
		return err
	}
	a.success("Note updated")
	return nil
}

// clearField entered alone empties a field on edit.
const clearField = "-"

func editedField(answer, current string) string {
	switch answer {
	case "":
		return current
	case clearField:
		return ""
	default:
		return answer
	}
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.noteID(args)
	if err != nil {
		return err
	}
	ok, err := Confirm(a.reader, "Delete note "+id+"?", a.out)
	if err != nil || !ok {
		return err
	}

	if err := a.vault.DeleteNote(ctx, id); err != nil {
		a.fail(err)
		return err
	}
	a.success("Note deleted")
	return nil
}

// Export asks the server for a ciphertext snapshot of all notes and keeps
// a local copy when the server hands out a download link.
func (a *App) Export(ctx context.Context) error {
	var key, saved string
	var count int
	err := a.withSpinner("Exporting...", func() error {
		res, err := a.vault.Export(ctx)
		if err != nil {
			return err
		}
		key, count = res.Key, res.Count
		if res.URL == "" {
			return nil
		}

		body, err := downloadExport(ctx, res.URL)
		if err != nil {
			return fmt.Errorf("download export: %w", err)
		}
		saved, err = saveExport(exportDir, path.Base(res.Key), body)
		return err
	})
	if err != nil {
		a.fail(err)
		return err
	}

	a.success(fmt.Sprintf("Exported %d encrypted notes to %s", count, key))
	if saved != "" {
		a.printf("Local copy: %s\n", saved)
	}
	return nil
}
