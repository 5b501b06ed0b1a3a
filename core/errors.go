package core

import "errors"

// ErrStopped is the error delivered when work is submitted to a Pool that
// has already been stopped: Submit's Future and TaskFlow.Run's Future are
// fulfilled with it instead of panicking. BlockingQueue and Scheduler do not
// return it.
var ErrStopped = errors.New("core: stopped")
