package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{Kind: CmdNext}},
		{"  N ", Command{Kind: CmdNext}},
		{"begin", Command{Kind: CmdStart}},
		{"prev", Command{Kind: CmdBack}},
		{"ask   where is the door?", Command{Kind: CmdAsk, Arg: "where is the door?"}},
		{"why do we walk?", Command{Kind: CmdAsk, Arg: "why do we walk?"}},
		{"r", Command{Kind: CmdReplay}},
		{"explain", Command{Kind: CmdExplain}},
		{"quit", Command{Kind: CmdExit}},
		{"?", Command{Kind: CmdHelp}},
		{"status", Command{Kind: CmdStatus}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	_, err := ParseCommand("jump")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = ParseCommand("ask   ")
	assert.ErrorIs(t, err, ErrMissingQuestion)
}
