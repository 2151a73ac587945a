package tabular

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gonkalabs/gonka-mask-go/internal/sanitize"
)

// CellRedactor is the per-cell step of a transform. *sanitize.Redactor
// implements it.
type CellRedactor interface {
	Redact(ctx context.Context, value string, p sanitize.Policy) (string, error)
}

// Stats summarises a transform.
type Stats struct {
	Sheets  int
	Rows    int // data rows, header rows excluded
	Cells   int // data cells visited
	Changed int // data cells whose value was replaced
}

// ColumnPolicies classifies every header cell once. Columns without a header
// cell use the zero (scan) policy; see PolicyAt.
func ColumnPolicies(header []string, rules sanitize.Rules) []sanitize.Policy {
	policies := make([]sanitize.Policy, len(header))
	for i, h := range header {
		policies[i] = rules.Classify(h)
	}
	return policies
}

// PolicyAt returns the policy for column i, defaulting to scan past the header.
func PolicyAt(policies []sanitize.Policy, i int) sanitize.Policy {
	if i < len(policies) {
		return policies[i]
	}
	return sanitize.Policy{}
}

// Transform redacts every data cell of wb in place. Header rows are left as
// they are. Row count and each row's length never change.
func Transform(ctx context.Context, wb *Workbook, r CellRedactor, rules sanitize.Rules) (Stats, error) {
	var st Stats
	for _, sh := range wb.Sheets {
		st.Sheets++
		if len(sh.Rows) == 0 {
			continue
		}

		policies := ColumnPolicies(sh.Rows[0], rules)
		for i, p := range policies {
			if p != (sanitize.Policy{}) {
				slog.Debug("tabular: column policy", "sheet", sh.Name, "column", i, "policy", p)
			}
		}

		total := len(sh.Rows) - 1
		for idx := 1; idx < len(sh.Rows); idx++ {
			if rules.ProgressEvery > 0 && idx%rules.ProgressEvery == 0 {
				slog.Info("tabular: processing", "sheet", sh.Name, "row", idx, "total", total)
			}
			row := sh.Rows[idx]
			for col, val := range row {
				out, err := r.Redact(ctx, val, PolicyAt(policies, col))
				if err != nil {
					return st, fmt.Errorf("tabular: sheet %q row %d column %d: %w", sh.Name, idx+1, col+1, err)
				}
				if out != val {
					row[col] = out
					st.Changed++
				}
				st.Cells++
			}
			st.Rows++
		}
	}
	return st, nil
}
