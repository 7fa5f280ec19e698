// Package paste runs a Markdown paste end to end: read the payload, then
// either append it to the active note or create one note per section.
package paste

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/salmonumbrella/mdoutline/internal/markdown"
	"github.com/salmonumbrella/mdoutline/internal/outline"
)

// Outcome describes what a paste did.
type Outcome string

const (
	OutcomeEmpty    Outcome = "empty"
	OutcomeAppended Outcome = "appended"
	OutcomeCreated  Outcome = "created"
)

// ErrEmptyInput reports a payload with no usable text.
var ErrEmptyInput = errors.New("clipboard is empty: copy some markdown text first")

// UnexpectedError wraps a failure that aborted a paste.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("paste failed: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// Result summarizes a paste.
type Result struct {
	Outcome Outcome `json:"outcome"`
	// Target is the note appended to.
	Target string `json:"target,omitempty"`
	// Notes lists created note ids in section order.
	Notes []string `json:"notes"`
	// Open is the note a caller should navigate to.
	Open       string         `json:"open,omitempty"`
	Skipped    []string       `json:"skipped,omitempty"`
	Duplicates []string       `json:"duplicates,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Stats      markdown.Stats `json:"stats"`
}

// Importer wires a payload source to a notebook.
type Importer struct {
	Source   Source
	Notebook outline.Notebook
	// Target is the active note. When set, the payload is appended to it
	// without splitting.
	Target   outline.Record
	Notifier Notifier
	Builder  markdown.Builder
	Splitter markdown.Splitter
	// Title replaces the placeholder section titles.
	Title string
	// FrontMatter strips a leading front matter block; its title is used
	// like Title.
	FrontMatter bool
	// SkipDuplicates skips sections whose digest the notebook already knows.
	// It needs a notebook implementing outline.DigestIndex.
	SkipDuplicates bool
	Logger         *slog.Logger
}

// Run performs the paste. An empty payload is not an error; it is reported
// through the notifier and Result.Outcome. Any other failure aborts and is
// returned as *UnexpectedError.
func (im *Importer) Run(ctx context.Context) (Result, error) {
	if im.Source == nil {
		return im.fail(errors.New("no input source"))
	}
	text, err := im.Source.Read(ctx)
	if err != nil {
		return im.fail(err)
	}

	var meta markdown.FrontMatter
	if im.FrontMatter {
		meta, text, err = markdown.ParseFrontMatter(text)
		if err != nil {
			return im.fail(err)
		}
	}

	if strings.TrimSpace(text) == "" {
		im.notify(Notice{Level: LevelWarn, Title: "Clipboard is empty", Message: "Copy some markdown text first!"})
		return Result{Outcome: OutcomeEmpty}, nil
	}

	var result Result
	if im.Target != nil {
		result, err = im.appendToTarget(ctx, text)
	} else {
		result, err = im.createNotes(ctx, text, firstNonEmpty(im.Title, meta.Title))
	}
	if err != nil {
		return im.fail(err)
	}
	result.Tags = meta.Tags

	if result.Outcome == OutcomeAppended {
		im.notify(Notice{Level: LevelInfo, Title: "Paste Complete", Message: "Markdown pasted into current note."})
	} else {
		im.notify(Notice{Level: LevelInfo, Title: "Import Complete", Message: importMessage(len(result.Notes))})
	}
	return result, nil
}

func (im *Importer) appendToTarget(ctx context.Context, text string) (Result, error) {
	existing, err := im.Target.LineItems(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list items of %s: %w", im.Target.ID(), err)
	}
	var after outline.Item
	if len(existing) > 0 {
		after = existing[len(existing)-1]
	}

	stats, err := im.Builder.Build(ctx, im.Target, markdown.SplitLines(text), after)
	if err != nil {
		return Result{}, err
	}
	if err := im.commit(ctx, im.Target); err != nil {
		return Result{}, err
	}

	im.logger().Info("appended to note", "note", im.Target.ID(), "created", stats.Created, "dropped", stats.Dropped)
	return Result{
		Outcome: OutcomeAppended,
		Target:  im.Target.ID(),
		Notes:   []string{},
		Open:    im.Target.ID(),
		Stats:   stats,
	}, nil
}

func (im *Importer) createNotes(ctx context.Context, text, title string) (Result, error) {
	if im.Notebook == nil {
		return Result{}, errors.New("no notebook configured")
	}

	splitter := im.Splitter
	if title != "" {
		splitter.LeadingTitle = title
		splitter.FallbackTitle = title
	}

	var digests outline.DigestIndex
	if im.SkipDuplicates {
		index, ok := im.Notebook.(outline.DigestIndex)
		if !ok {
			return Result{}, errors.New("notebook does not support duplicate detection")
		}
		digests = index
	}

	result := Result{Outcome: OutcomeCreated, Notes: []string{}}
	for _, section := range splitter.Split(text) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		var digest string
		if digests != nil {
			digest = Digest(section)
			seen, err := digests.HasDigest(ctx, digest)
			if err != nil {
				return Result{}, fmt.Errorf("check duplicate %q: %w", section.Title, err)
			}
			if seen {
				im.logger().Info("skipping duplicate section", "title", section.Title)
				result.Duplicates = append(result.Duplicates, section.Title)
				continue
			}
		}

		id, err := im.Notebook.CreateRecord(ctx, section.Title)
		if err != nil || id == "" {
			im.logger().Warn("note not created", "title", section.Title, "error", err)
			result.Skipped = append(result.Skipped, section.Title)
			continue
		}
		record, err := im.Notebook.Record(ctx, id)
		if err != nil || record == nil {
			im.logger().Warn("note not found after create", "id", id, "error", err)
			result.Skipped = append(result.Skipped, section.Title)
			continue
		}

		stats, err := im.Builder.Build(ctx, record, markdown.SplitLines(section.Body), nil)
		if err != nil {
			return Result{}, err
		}
		if err := im.commit(ctx, record); err != nil {
			return Result{}, err
		}
		if digests != nil {
			if err := digests.SetDigest(ctx, id, digest); err != nil {
				im.logger().Warn("digest not saved", "id", id, "error", err)
			}
		}

		result.Stats.Created += stats.Created
		result.Stats.Dropped += stats.Dropped
		result.Notes = append(result.Notes, id)
	}

	if len(result.Notes) > 0 {
		result.Open = result.Notes[0]
	}
	return result, nil
}

// commit flushes buffered writes, preferring the record's own Commit.
func (im *Importer) commit(ctx context.Context, record outline.Record) error {
	if c, ok := record.(outline.Committer); ok {
		return c.Commit(ctx)
	}
	if c, ok := im.Notebook.(outline.Committer); ok {
		return c.Commit(ctx)
	}
	return nil
}

func (im *Importer) fail(err error) (Result, error) {
	message := err.Error()
	if message == "" {
		message = "Could not read clipboard."
	}
	im.logger().Error("paste failed", "error", err)
	im.notify(Notice{Level: LevelError, Title: "Paste Failed", Message: message})
	return Result{}, &UnexpectedError{Err: err}
}

func (im *Importer) notify(n Notice) {
	if im.Notifier != nil {
		im.Notifier.Notify(n)
	}
}

func (im *Importer) logger() *slog.Logger {
	if im.Logger != nil {
		return im.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Digest fingerprints a section by title and body.
func Digest(section markdown.Section) string {
	sum := blake3.Sum256([]byte(section.Title + "\n" + section.Body))
	return hex.EncodeToString(sum[:])
}

func importMessage(n int) string {
	if n == 1 {
		return "Created 1 note from clipboard."
	}
	return fmt.Sprintf("Created %d notes from clipboard.", n)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
