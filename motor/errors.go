package motor

import "errors"

// ErrDisconnected is the sentinel cause of any facade error raised when
// one of an axis's channel endpoints does not respond (spec §4.1,
// §7 "Connectivity").
var ErrDisconnected = errors.New("motor: axis disconnected")

// ErrDisabled is the sentinel cause of a SetPosition failure raised
// when the motor is software-disabled (spec §4.1, §7 "Disabled motor
// detected at trigger").
var ErrDisabled = errors.New("motor: axis disabled")
