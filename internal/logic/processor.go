package logic

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Processor runs a job per input with bounded parallelism and reports each
// result from a single printer goroutine.
type Processor struct {
	env      Env
	parallel int
	quiet    bool

	// verb describes a successful job, e.g. "Stored".
	verb string

	// cleanup runs in the printer for each successful result when set.
	cleanup func(ctx context.Context, res Result) (string, error)

	results chan Result
}

// Job processes one input.
type Job func(ctx context.Context, input string) (Result, error)

// Counts summarizes a processing run.
type Counts struct {
	Processed int
	Errored   int
	Size      int64
}

// ProcessAll runs job for every input. It keeps going after failures and
// returns the first error once all inputs were attempted.
func (p *Processor) ProcessAll(ctx context.Context, inputs []string, job Job) (Counts, error) {
	var counts Counts

	p.results = make(chan Result, len(inputs))

	printed := make(chan struct{})

	go func() {
		defer close(printed)

		for res := range p.results {
			p.report(ctx, res, &counts)
		}
	}()

	group := errgroup.Group{}
	group.SetLimit(max(1, p.parallel))

	for _, input := range inputs {
		group.Go(func() error {
			res, err := job(ctx, input)
			if err != nil {
				p.results <- Result{Input: input, Error: err}

				return err
			}

			p.results <- res

			return nil
		})
	}

	err := group.Wait()

	close(p.results)

	<-printed // Wait for printer to finish

	if err != nil {
		return counts, fmt.Errorf("processing: %w", err)
	}

	return counts, nil
}

func (p *Processor) report(ctx context.Context, res Result, counts *Counts) {
	if res.Error != nil {
		counts.Errored++

		fmt.Fprintf(p.env.Err, "Error processing %q: %v\n", res.Input, res.Error)

		return
	}

	counts.Processed++
	counts.Size += res.Size

	if !p.quiet {
		fmt.Fprintf(p.env.Out, "%s %q -> %q\n", p.verb, res.Input, res.Output)
	}

	if p.cleanup == nil {
		return
	}

	what, err := p.cleanup(ctx, res)
	if err != nil {
		fmt.Fprintf(p.env.Err, "Error deleting %q: %v\n", what, err)
	} else if !p.quiet {
		fmt.Fprintf(p.env.Out, "Deleted %q\n", what)
	}
}
