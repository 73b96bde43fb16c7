package interfaces

// ProgressFunc reports stage progress as a percentage in [0,100]. Callers
// pass nil when they do not care; implementations must tolerate nil.
type ProgressFunc func(percent int)

// Report invokes the callback when non-nil.
func (f ProgressFunc) Report(percent int) {
	if f != nil {
		f(percent)
	}
}
