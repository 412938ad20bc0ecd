package stover

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Field is one required column of an input file: the header name it must
// appear under and the type its cells parse as.
type Field struct {
	Name  string
	DType DataTypes
}

// FileSchema lists the columns to read from a file, in output order. Columns
// are located by header name, not position, and the header is validated
// before any data row is read.
type FileSchema []Field

// ReadCSV reads the schema's columns from a comma-delimited file with a
// header row. It fails with ErrMissingFile if the path does not exist and
// ErrSchemaMismatch if a required column is absent from the header or a cell
// does not parse as its declared type. Columns not named in the schema are
// ignored.
func ReadCSV(fileName string, schema FileSchema) (*Frame, error) {
	if len(schema) == 0 {
		return nil, fmt.Errorf("empty schema for %s", fileName)
	}

	file, e := os.Open(fileName)
	if e != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingFile, fileName)
	}
	defer func() { _ = file.Close() }()

	rdr := csv.NewReader(file)

	header, eh := rdr.Read()
	if eh != nil {
		return nil, fmt.Errorf("%w: %s has no header row", ErrSchemaMismatch, fileName)
	}

	// map schema entries to header positions
	pos := make([]int, len(schema))
	for ind, fld := range schema {
		pos[ind] = -1
		for hInd, h := range header {
			if h == fld.Name {
				pos[ind] = hInd
				break
			}
		}

		if pos[ind] < 0 {
			return nil, fmt.Errorf("%w: %s missing column %s", ErrSchemaMismatch, fileName, fld.Name)
		}
	}

	data := make([]any, len(schema))
	for ind, fld := range schema {
		switch fld.DType {
		case DTfloat:
			data[ind] = []float64{}
		case DTint:
			data[ind] = []int{}
		case DTstring:
			data[ind] = []string{}
		default:
			return nil, fmt.Errorf("unsupported data type for column %s", fld.Name)
		}
	}

	line := 1
	for {
		rec, er := rdr.Read()
		if er == io.EOF {
			break
		}
		if er != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, fileName, er)
		}
		line++

		for ind, fld := range schema {
			raw := rec[pos[ind]]
			switch fld.DType {
			case DTfloat:
				v, ev := strconv.ParseFloat(raw, 64)
				if ev != nil {
					return nil, fmt.Errorf("%w: %s line %d: %s is not a float", ErrSchemaMismatch, fileName, line, raw)
				}
				data[ind] = append(data[ind].([]float64), v)
			case DTint:
				v, ev := strconv.Atoi(raw)
				if ev != nil {
					return nil, fmt.Errorf("%w: %s line %d: %s is not an int", ErrSchemaMismatch, fileName, line, raw)
				}
				data[ind] = append(data[ind].([]int), v)
			case DTstring:
				data[ind] = append(data[ind].([]string), raw)
			}
		}
	}

	var cols []*Col
	for ind, fld := range schema {
		col, ec := NewCol(fld.Name, data[ind])
		if ec != nil {
			return nil, ec
		}

		cols = append(cols, col)
	}

	return NewFrame(cols...)
}
