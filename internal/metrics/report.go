package metrics

import "context"

// Reporter receives progress messages meant for the caller, as opposed to
// the server log.
type Reporter interface {
	Info(ctx context.Context, msg string)
	Warning(ctx context.Context, msg string)
}

type reporterKey struct{}

func WithReporter(ctx context.Context, r Reporter) context.Context {
	return context.WithValue(ctx, reporterKey{}, r)
}

func reporterFrom(ctx context.Context) Reporter {
	if r, ok := ctx.Value(reporterKey{}).(Reporter); ok && r != nil {
		return r
	}
	return nopReporter{}
}

type nopReporter struct{}

func (nopReporter) Info(context.Context, string)    {}
func (nopReporter) Warning(context.Context, string) {}
