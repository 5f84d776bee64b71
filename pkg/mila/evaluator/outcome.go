package evaluator

// Flow says how evaluation of a node finished.
type Flow int

const (
	// Normal completion; Value may be nil when nothing was produced.
	Normal Flow = iota
	// Returned means a ret statement is unwinding to the nearest call.
	Returned
	// Failed means Value holds the *Error.
	Failed
	// Exited means the exit builtin asked to stop with Code.
	Exited
)

func (f Flow) String() string {
	switch f {
	case Normal:
		return "normal"
	case Returned:
		return "returned"
	case Failed:
		return "failed"
	case Exited:
		return "exited"
	}
	return "unknown"
}

// Outcome is the result of evaluating a node.
type Outcome struct {
	Flow  Flow
	Value Object
	Code  int
}

func normal(val Object) Outcome {
	return Outcome{Flow: Normal, Value: val}
}

func failed(err *Error) Outcome {
	return Outcome{Flow: Failed, Value: err}
}

func exited(code int) Outcome {
	return Outcome{Flow: Exited, Code: code}
}

// IsError reports whether evaluation failed.
func (o Outcome) IsError() bool {
	return o.Flow == Failed
}

// Err returns the runtime error of a failed outcome, or nil.
func (o Outcome) Err() *Error {
	if o.Flow != Failed {
		return nil
	}
	err, _ := o.Value.(*Error)
	return err
}

// interrupted reports whether the outcome stops a statement sequence.
func (o Outcome) interrupted() bool {
	return o.Flow != Normal
}
