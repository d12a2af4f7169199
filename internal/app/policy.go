package app

import (
	"errors"

	"github.com/dkeye/Circle/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a connection that could not take a frame.
type Policy interface {
	OnBackPressure(c *Conn, err error) BackpressureAction
}

// SimplePolicy kicks slow consumers and ignores already closed ones.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(_ *Conn, err error) BackpressureAction {
	if errors.Is(err, core.ErrBackpressure) {
		return KickMember
	}
	return NoAction
}
