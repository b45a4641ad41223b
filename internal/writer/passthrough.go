package writer

import "github.com/kgxflow/kgxflow/internal/kgx"

// passthroughWriter accumulates records in memory; used when one transform
// supplies mapping data to another (§4.G "Passthrough writer").
type passthroughWriter struct {
	records []*kgx.Record
}

func newPassthroughWriter() *passthroughWriter {
	return &passthroughWriter{}
}

func (p *passthroughWriter) Write(r *kgx.Record) error {
	p.records = append(p.records, r)
	return nil
}

func (p *passthroughWriter) Finalize() error { return nil }

// Records returns every record written so far.
func (p *passthroughWriter) Records() []*kgx.Record {
	return p.records
}

// NewPassthrough exposes passthroughWriter construction for callers (like
// the mapping loader) that need direct access to Records() after a run.
func NewPassthrough() *passthroughWriter {
	return newPassthroughWriter()
}
