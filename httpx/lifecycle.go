package httpx

import "go.uber.org/multierr"

// lifecycle holds the per-exchange "starting" and "completed" callback
// phases. Each phase fires at most once, in registration order. A failing
// callback never prevents the callbacks after it from running; their errors
// are combined and handed back to the firing site.
type lifecycle struct {
	starting       []func() error
	completed      []func() error
	startingFired  bool
	completedFired bool
}

func (l *lifecycle) onStarting(cb func() error) error {
	if l.startingFired {
		return ErrResponseStarted
	}
	l.starting = append(l.starting, cb)
	return nil
}

func (l *lifecycle) onCompleted(cb func() error) error {
	if l.completedFired {
		return ErrResponseCompleted
	}
	l.completed = append(l.completed, cb)
	return nil
}

func (l *lifecycle) fireStarting() error {
	if l.startingFired {
		return nil
	}
	l.startingFired = true
	var err error
	for _, cb := range l.starting {
		err = multierr.Append(err, cb())
	}
	l.starting = nil
	return err
}

func (l *lifecycle) fireCompleted() error {
	if l.completedFired {
		return nil
	}
	l.completedFired = true
	var err error
	for _, cb := range l.completed {
		err = multierr.Append(err, cb())
	}
	l.completed = nil
	return err
}
