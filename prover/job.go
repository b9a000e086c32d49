package prover

import (
	"context"

	"github.com/google/uuid"
)

// Job is an asynchronously running proof request.
type Job struct {
	ID uuid.UUID

	done  chan struct{}
	proof *Proof
	err   error
}

// Submit starts proving in the background and returns immediately. The
// job runs under ctx: cancelling it abandons the proof with no side
// effects. Worker-pool bounds apply the same as for Prove.
func (s *Service) Submit(ctx context.Context, w Witness) *Job {
	j := &Job{
		ID:   uuid.New(),
		done: make(chan struct{}),
	}
	s.log.Debug().Str("job", j.ID.String()).Str("circuit", string(w.CircuitName())).Msg("submitted proof job")
	go func() {
		j.proof, j.err = s.Prove(ctx, w)
		close(j.done)
	}()
	return j
}

// Done returns a channel closed when the job finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx ends, whichever comes
// first. Abandoning a Wait does not cancel the job; cancel the Submit
// context for that.
func (j *Job) Wait(ctx context.Context) (*Proof, error) {
	select {
	case <-ctx.Done():
		return nil, ctxError(ctx.Err())
	case <-j.done:
		return j.proof, j.err
	}
}
