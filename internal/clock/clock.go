// Package clock provides the production ports.Scheduler.
package clock

import (
	"time"

	"github.com/aretw0/cerebro/pkg/ports"
)

// System is a ports.Scheduler backed by the runtime timer wheel.
type System struct{}

var _ ports.Scheduler = System{}

func (System) Now() time.Time { return time.Now() }

func (System) AfterFunc(d time.Duration, fn func()) ports.Timer {
	return time.AfterFunc(d, fn)
}
