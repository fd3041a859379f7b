package client

import (
	"time"

	"github.com/tsegismont/vertx-redis-client/pkg/utils/math2"
)

type Delay interface {
	Reset()
	After() <-chan time.Time
}

// DelayExp2 doubles the delay on every call, bounded to [Min, Max] units.
type DelayExp2 struct {
	Min, Max int
	value    int
	Unit     time.Duration
}

func (d *DelayExp2) Reset() {
	d.value = 0
}

func (d *DelayExp2) NextValue() int {
	d.value = math2.MinMaxInt(d.value*2, d.Min, d.Max)
	return d.value
}

func (d *DelayExp2) After() <-chan time.Time {
	total := d.NextValue()
	return time.After(time.Duration(total) * d.Unit)
}
