package logic

// Result represents the outcome of processing a single item.
type Result struct {
	// Input is the source path or record ID.
	Input string

	// Output is the record ID or destination path.
	Output string

	// Size is the number of plaintext bytes handled.
	Size int64

	// Any error that occurred during processing
	Error error
}
