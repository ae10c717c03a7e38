package client

// optimistic applies a tentative change, runs the remote call without holding
// the lock, then either commits the result or reverts the change. apply,
// commit and revert run under s.mu.
func optimistic[T any](s *TaskState, apply func(), remote func() (T, error), commit func(T), revert func(error)) (T, error) {
	s.mu.Lock()
	apply()
	s.mu.Unlock()

	v, err := remote()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		revert(err)
		return v, err
	}
	commit(v)
	return v, nil
}

// none adapts a call without a result to optimistic.
func none(f func() error) func() (struct{}, error) {
	return func() (struct{}, error) {
		return struct{}{}, f()
	}
}
