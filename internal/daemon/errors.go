package daemon

import "errors"

// ErrTerminated is returned by Start and Pause once Terminate has been called.
var ErrTerminated = errors.New("daemon: terminated")
