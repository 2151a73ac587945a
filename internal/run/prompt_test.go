package run

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalPrompter_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"はい\n", true},
		{"  y  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yes", true},
		{"sure\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := newPrompter(strings.NewReader(tt.input), &out, true)

		got, err := p.Confirm(context.Background(), "続行しますか？")
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "続行しますか？ [y/N]: ", out.String())
	}
}

func TestTerminalPrompter_NotInteractive(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("y\n/tmp/a.csv\n"), &out, false)

	ok, err := p.Confirm(context.Background(), "q")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = p.PickFile(context.Background())
	assert.ErrorIs(t, err, ErrNotInteractive)
	assert.Empty(t, out.String())
}

func TestTerminalPrompter_PickFile(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("'/data/顧客 一覧.xlsx'\n\n"), &out, true)

	path, err := p.PickFile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/data/顧客 一覧.xlsx", path)
	assert.Contains(t, out.String(), "*.xlsx")

	path, err = p.PickFile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestTerminalPrompter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newPrompter(strings.NewReader("y\n"), &bytes.Buffer{}, true)
	_, err := p.Confirm(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTerminalPrompter_PipeIsNotInteractive(t *testing.T) {
	p := NewTerminalPrompter(strings.NewReader(""), &bytes.Buffer{})
	assert.False(t, p.interactive)
}
