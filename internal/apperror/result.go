package apperror

// Result is the outcome of a mutation. On failure Error holds the text to
// show the user and Err the typed error behind it.
type Result struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

func OK(data any) Result {
	return Result{Data: data}
}

func Fail(err error) Result {
	return Result{Error: Message(err), Err: err}
}
