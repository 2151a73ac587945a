package run

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gonkalabs/gonka-mask-go/internal/tabular"
)

// ErrSourceNotFound is returned when the source path does not exist.
var ErrSourceNotFound = errors.New("source file not found")

// Kind classifies how a run ended.
type Kind int

const (
	OutcomeSuccess     Kind = iota // destination written
	OutcomeCancelled               // no file chosen
	OutcomeDeclined                // operator refused pattern-only mode
	OutcomeNotFound                // source missing
	OutcomeUnsupported             // extension has no adapter
	OutcomeFailed                  // read, redact or write failed
)

func (k Kind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeDeclined:
		return "declined"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeUnsupported:
		return "unsupported-format"
	case OutcomeFailed:
		return "processing-error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Outcome is the result of one run.
type Outcome struct {
	Kind        Kind
	Source      string
	Destination string // set on success
	Digest      string // BLAKE2b-256 of the written file, hex
	Stats       tabular.Stats
	Err         error // set for not-found, unsupported and failed
}

// ExitCode maps the outcome to a process exit status.
func (o Outcome) ExitCode() int {
	switch o.Kind {
	case OutcomeSuccess, OutcomeCancelled, OutcomeDeclined:
		return 0
	}
	return 1
}

// Message is the text shown to the operator.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeSuccess:
		return "マスク済みファイルを保存しました:\n" + o.Destination
	case OutcomeCancelled:
		return "ファイルが選択されませんでした"
	case OutcomeDeclined:
		return "処理を中止しました"
	case OutcomeNotFound:
		return "ファイルが見つかりません:\n" + o.Source
	case OutcomeUnsupported:
		return "非対応の形式です: " + filepath.Ext(o.Source)
	}
	return fmt.Sprintf("処理中にエラーが発生しました:\n%v", o.Err)
}
