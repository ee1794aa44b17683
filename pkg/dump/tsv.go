package dump

import (
	"encoding/csv"
	"io"
)

func newTSVWriter(w io.Writer) *csv.Writer {
	tw := csv.NewWriter(w)
	tw.Comma = '\t'
	tw.UseCRLF = true
	return tw
}

// TSVHeader appends the column names of transform(v) to name.tsv as a single
// header row. Scalars get the one column "string".
func TSVHeader[T any](d *Dumper, v T, name string, transform func(T) any) error {
	d = orDefault(d)
	if !d.Active() {
		return nil
	}
	l, err := layoutOf(identity(transform)(v))
	if err != nil {
		return err
	}
	return writeRows(d, name, l.names, nil)
}

// TSVRecord appends one data row for v, preceded by a header row when
// writeHeader is set.
func TSVRecord[T any](d *Dumper, v T, name string, transform func(T) any, writeHeader bool) error {
	return TSV(d, []T{v}, name, transform, writeHeader)
}

// TSV appends one row per element of seq to name.tsv. The columns are fixed
// by the first transformed element, and the header row is written from it
// when writeHeader is set. An empty seq writes nothing.
//
// Every element must project to the same type as the first; otherwise
// ErrShapeMismatch is returned. Rows before the failing element stay in the
// file.
func TSV[T any](d *Dumper, seq []T, name string, transform func(T) any, writeHeader bool) error {
	d = orDefault(d)
	if !d.Active() || len(seq) == 0 {
		return nil
	}
	transform = identity(transform)

	return d.WriteText(name, TSVExtension, func(w io.Writer) error {
		tw := newTSVWriter(w)
		defer tw.Flush()

		var l *layout
		for _, item := range seq {
			v := transform(item)
			if l == nil {
				var err error
				if l, err = layoutOf(v); err != nil {
					return err
				}
				if writeHeader {
					if err := tw.Write(l.names); err != nil {
						return err
					}
				}
			}
			row, err := l.row(v)
			if err != nil {
				return err
			}
			if err := tw.Write(row); err != nil {
				return err
			}
		}
		tw.Flush()
		return tw.Error()
	})
}

// WriteTSVHeader appends header as one row of name.tsv. A nil header writes
// nothing.
func WriteTSVHeader(d *Dumper, name string, header []string) error {
	if header == nil {
		return nil
	}
	return writeRows(orDefault(d), name, header, nil)
}

// WriteTSVRecord appends values as one data row of name.tsv.
func WriteTSVRecord(d *Dumper, name string, values []any) error {
	return WriteTSV(d, name, [][]any{values}, nil)
}

// WriteTSV appends rows to name.tsv, preceded by header unless it is nil.
// Values are formatted the same way as TSV formats struct fields.
func WriteTSV(d *Dumper, name string, rows [][]any, header []string) error {
	d = orDefault(d)
	if !d.Active() {
		return nil
	}
	records := make([][]string, len(rows))
	for i, r := range rows {
		rec := make([]string, len(r))
		for j, v := range r {
			s, err := formatValue(v)
			if err != nil {
				return err
			}
			rec[j] = s
		}
		records[i] = rec
	}
	return writeRows(d, name, header, records)
}

func writeRows(d *Dumper, name string, header []string, records [][]string) error {
	return d.WriteText(name, TSVExtension, func(w io.Writer) error {
		tw := newTSVWriter(w)
		if header != nil {
			if err := tw.Write(header); err != nil {
				return err
			}
		}
		if err := tw.WriteAll(records); err != nil {
			return err
		}
		return tw.Error()
	})
}
