// Package transform implements the user transform runtime (§4.E): the
// record-at-a-time or stream-at-a-time contract user modules implement, the
// context they're handed, and the driver loop that pulls records from a
// source and pushes them through exactly one of the two entry points.
package transform

import (
	"io"

	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
)

// RecordTransform is implemented by a user module that wants to be called
// once per source row.
type RecordTransform interface {
	TransformRecord(ctx *Context, record *kgx.Record) error
}

// StreamTransform is implemented by a user module that wants to be called
// once, with the record stream exposed as a lazy iterator on the context.
type StreamTransform interface {
	TransformStream(ctx *Context) error
}

// DataBeginHook, if implemented alongside RecordTransform or
// StreamTransform, is called before the first record.
type DataBeginHook interface {
	OnDataBegin(ctx *Context) error
}

// DataEndHook, if implemented, is called after the last record (including
// when iteration stops early via row_limit or an unhandled PARSE/MAPPING
// failure that the caller chooses to tolerate).
type DataEndHook interface {
	OnDataEnd(ctx *Context) error
}

// Transform is the registered value a user module exposes. It must
// implement exactly one of RecordTransform or StreamTransform; implementing
// both is a CONTRACT error (§4.E "A user module declaring both ... is a
// CONTRACT error").
type Transform any

// nextRowSignal is the sentinel the context's row-skip mechanism uses.
type nextRowSignal struct{}

func (nextRowSignal) Error() string { return "skip this row" }

// NextRow, when returned from a RecordTransform's TransformRecord, is
// caught at the per-record boundary and treated as "skip this row,
// continue" — it never propagates past Run.
var NextRow error = nextRowSignal{}

// RecordSource is the minimal pull interface Run needs from upstream
// (component D's Source satisfies this).
type RecordSource interface {
	Next() (*kgx.Record, error)
}

// Writer is the minimal push interface Run needs downstream (component G's
// writers satisfy this).
type Writer interface {
	Write(record *kgx.Record) error
	Finalize() error
}

// Run drives src through xf exactly once, calling the appropriate entry
// point, the lifecycle hooks if present, and finalizing w exactly once
// regardless of how iteration ends.
func Run(ctx *Context, src RecordSource, xf Transform, w Writer) (err error) {
	ctx.writer = w
	ctx.source = src

	_, isRecord := xf.(RecordTransform)
	_, isStream := xf.(StreamTransform)
	if isRecord && isStream {
		return errors.ContractError("transform module implements both RecordTransform and StreamTransform")
	}
	if !isRecord && !isStream {
		return errors.ContractError("transform module implements neither RecordTransform nor StreamTransform")
	}

	defer func() {
		if ferr := w.Finalize(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	if hook, ok := xf.(DataBeginHook); ok {
		if err := hook.OnDataBegin(ctx); err != nil {
			return err
		}
	}

	if rt, ok := xf.(RecordTransform); ok {
		err = runRecordTransform(ctx, src, rt)
	} else {
		st := xf.(StreamTransform)
		err = st.TransformStream(ctx)
	}
	if err != nil {
		return err
	}

	if hook, ok := xf.(DataEndHook); ok {
		if err := hook.OnDataEnd(ctx); err != nil {
			return err
		}
	}
	return nil
}

func runRecordTransform(ctx *Context, src RecordSource, rt RecordTransform) error {
	for {
		rec, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		ctx.lastRecord = rec
		if terr := rt.TransformRecord(ctx, rec); terr != nil {
			if _, skip := terr.(nextRowSignal); skip {
				continue
			}
			return terr
		}
	}
}
