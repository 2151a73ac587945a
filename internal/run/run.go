// Package run drives one masking run: it resolves the source and destination
// paths, gates pattern-only mode on operator confirmation, picks the tabular
// adapter and maps failures to an Outcome.
package run

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/gonkalabs/gonka-mask-go/internal/sanitize"
	"github.com/gonkalabs/gonka-mask-go/internal/tabular"
)

// DegradedQuestion is asked before a run without the semantic tier.
const DegradedQuestion = "高精度NLPマスクが使えません。\n正規表現のみの簡易マスクで続行しますか？"

// Prompter is the operator-facing side of a run.
type Prompter interface {
	// PickFile asks for a source file. An empty path means the operator
	// chose nothing.
	PickFile(ctx context.Context) (string, error)
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, question string) (bool, error)
}

// Controller runs a single masking job.
type Controller struct {
	rules     sanitize.Rules
	detector  sanitize.EntityDetector
	prompter  Prompter
	assumeYes bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithAssumeYes skips the pattern-only confirmation.
func WithAssumeYes(yes bool) Option {
	return func(c *Controller) { c.assumeYes = yes }
}

// New creates a Controller. detector is the capability resolved at start-up.
func New(rules sanitize.Rules, detector sanitize.EntityDetector, prompter Prompter, opts ...Option) *Controller {
	if detector == nil {
		detector = sanitize.NewUnavailable(nil)
	}
	c := &Controller{rules: rules, detector: detector, prompter: prompter}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run masks the file at path, asking the operator for one if path is empty.
func (c *Controller) Run(ctx context.Context, path string) Outcome {
	log := slog.With("run", uuid.NewString())

	if path == "" {
		picked, err := c.prompter.PickFile(ctx)
		if err != nil {
			return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("run: pick file: %w", err)}
		}
		path = strings.TrimSpace(picked)
		if path == "" {
			return Outcome{Kind: OutcomeCancelled}
		}
	}

	out := Outcome{Source: path}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			out.Kind = OutcomeNotFound
			out.Err = fmt.Errorf("run: %s: %w", path, ErrSourceNotFound)
			return out
		}
		out.Kind = OutcomeFailed
		out.Err = fmt.Errorf("run: stat %s: %w", path, err)
		return out
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" && ext != ".xls" {
		out.Kind = OutcomeUnsupported
		out.Err = fmt.Errorf("run: %w: %s", tabular.ErrUnsupportedFormat, ext)
		return out
	}

	if !c.detector.Available() {
		log.Warn("run: semantic tier unavailable", "err", sanitize.UnavailableReason(c.detector))
		if !c.assumeYes {
			ok, err := c.prompter.Confirm(ctx, DegradedQuestion)
			if err != nil {
				out.Kind = OutcomeFailed
				out.Err = fmt.Errorf("run: confirm: %w", err)
				return out
			}
			if !ok {
				log.Info("run: operator declined pattern-only mode")
				out.Kind = OutcomeDeclined
				return out
			}
		}
	}

	dst := DestinationPath(path, c.rules.OutputPrefix)
	redactor := sanitize.NewRedactor(c.rules, c.detector)
	log.Info("run: start", "source", path, "destination", dst, "mode", redactor.Mode())

	stats, err := c.process(ctx, path, dst, ext, redactor)
	if err != nil {
		log.Error("run: failed", "err", err)
		out.Kind = OutcomeFailed
		out.Err = err
		return out
	}

	digest, err := fileDigest(dst)
	if err != nil {
		log.Warn("run: digest", "err", err)
	}
	log.Info("run: done",
		"destination", dst,
		"rows", stats.Rows,
		"cells", stats.Cells,
		"changed", stats.Changed,
		"blake2b", digest,
	)

	out.Kind = OutcomeSuccess
	out.Destination = dst
	out.Stats = stats
	out.Digest = digest
	return out
}

// process loads, transforms and saves. Legacy .xls sources are first copied
// to an .xlsx destination, which is then transformed in place.
func (c *Controller) process(ctx context.Context, src, dst, ext string, r *sanitize.Redactor) (tabular.Stats, error) {
	if ext == ".xls" {
		if err := copyFile(src, dst); err != nil {
			return tabular.Stats{}, fmt.Errorf("run: copy legacy spreadsheet: %w", err)
		}
		src = dst
	}

	adapter, err := tabular.ForPath(src, c.rules.CSVEncodings)
	if err != nil {
		return tabular.Stats{}, err
	}

	wb, err := adapter.Load(src)
	if err != nil {
		return tabular.Stats{}, err
	}
	defer wb.Close()

	stats, err := tabular.Transform(ctx, wb, r, c.rules)
	if err != nil {
		return stats, err
	}
	if err := adapter.Save(wb, dst); err != nil {
		return stats, err
	}
	return stats, nil
}

// DestinationPath returns the output path for src: same directory, file name
// prefixed with prefix. A .xls source always yields an .xlsx destination.
func DestinationPath(src, prefix string) string {
	dir, base := filepath.Split(src)
	ext := filepath.Ext(base)
	if strings.EqualFold(ext, ".xls") {
		base = strings.TrimSuffix(base, ext) + ".xlsx"
	}
	return filepath.Join(dir, prefix+base)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
