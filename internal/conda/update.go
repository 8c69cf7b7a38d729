package conda

import (
	"context"
	"errors"
)

// UpdateReporter observes Update. Implementations must be safe to call from
// the goroutine running Update.
type UpdateReporter interface {
	Plan(names []string)
	Start(name string)
	Complete(name string, err error)
}

type nopReporter struct{}

func (nopReporter) Plan([]string)          {}
func (nopReporter) Start(string)           {}
func (nopReporter) Complete(string, error) {}

// Update updates every installed package one at a time. A failing package
// does not stop the rest; all failures come back in an *UpdateError.
func (c *Client) Update(ctx context.Context, reporter UpdateReporter) error {
	if reporter == nil {
		reporter = nopReporter{}
	}
	names, err := c.Installed(ctx)
	if err != nil {
		return err
	}
	reporter.Plan(names)

	var failures []UpdateFailure
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, updateError(failures))
		}
		reporter.Start(name)
		err := c.exec(ctx, "update", "-y", name)
		reporter.Complete(name, err)
		if err != nil {
			c.log.Warn().Err(err).Str("package", name).Msg("update failed")
			failures = append(failures, UpdateFailure{Name: name, Err: err})
		}
	}
	return updateError(failures)
}

func updateError(failures []UpdateFailure) error {
	if len(failures) == 0 {
		return nil
	}
	return &UpdateError{Failures: failures}
}
