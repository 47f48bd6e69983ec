package core

// Transformer rewrites a Transcript snapshot in place. Snapshots are copies
// handed out by the engine, so transformers never touch live engine state as
// long as they replace (not mutate) the maps inside actions.
type Transformer interface {
	Transform(t *Transcript) error
}

// Chain applies transformers in order, stopping at the first error.
func Chain(t *Transcript, transformers ...Transformer) error {
	for _, tr := range transformers {
		if err := tr.Transform(t); err != nil {
			return err
		}
	}
	return nil
}
