package cli

import "errors"

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	ExerciseID string
	ProfileID  string
	Fresh      bool // ignore saved progress
	Headless   bool
	JSON       bool
	Debug      bool
}

// Validate checks the options before any component is built.
func (o RunOptions) Validate() error {
	if o.ExerciseID == "" {
		return errors.New("an exercise id is required (see 'cerebro list')")
	}
	return nil
}

// resume reports whether saved progress should be used.
func (o RunOptions) resume() bool {
	return o.ProfileID != "" && !o.Fresh
}

func (o RunOptions) quiet() bool {
	return o.JSON || o.Headless
}
