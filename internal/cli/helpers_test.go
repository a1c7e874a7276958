package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/session"
	"github.com/stretchr/testify/assert"
)

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.NoError(t, handleExecutionError(fmt.Errorf("input: %w", io.EOF)))

	boom := errors.New("boom")
	assert.ErrorIs(t, handleExecutionError(boom), boom)
}

func TestRunOptions(t *testing.T) {
	assert.Error(t, RunOptions{}.Validate())
	assert.NoError(t, RunOptions{ExerciseID: "palace"}.Validate())

	assert.False(t, RunOptions{ExerciseID: "palace"}.resume(), "anonymous runs never resume")
	assert.True(t, RunOptions{ExerciseID: "palace", ProfileID: "ana"}.resume())
	assert.False(t, RunOptions{ExerciseID: "palace", ProfileID: "ana", Fresh: true}.resume())
}

func TestLogCompletion(t *testing.T) {
	view := session.View{ExerciseID: "palace", Cursor: domain.Cursor{StepIndex: 1}, StepCount: 3, Status: domain.StatusExited}

	tests := []struct {
		name string
		opts RunOptions
		view session.View
		sig  os.Signal
		want string
	}{
		{"interrupt", RunOptions{}, view, os.Interrupt, "[CTRL+C]\n>>> Interrupted at step 2 of 3.\n"},
		{"plain exit", RunOptions{}, view, nil, ">>> Stopped at step 2 of 3.\n"},
		{"completed", RunOptions{}, session.View{ExerciseID: "palace", Status: domain.StatusCompleted}, nil, ">>> Completed 'palace'.\n"},
		{"quiet", RunOptions{JSON: true}, view, os.Interrupt, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logCompletion(&buf, tt.opts, tt.view, tt.sig)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestSignalContext_CancelWithoutSignal(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}
