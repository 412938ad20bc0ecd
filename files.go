package stover

import (
	"fmt"
	"os"
	"strings"
)

// All code writing result files is here.

const (
	Sep         = ','
	EOL         = '\n'
	FloatFormat = "%.6g"
	Header      = true
)

// Files writes frames out as delimited text.
type Files struct {
	EOL         byte
	Sep         byte
	FloatFormat string
	Header      bool

	file     *os.File
	fileName string
}

func NewFiles() *Files {
	f := &Files{
		EOL:         byte(EOL),
		Sep:         byte(Sep),
		FloatFormat: FloatFormat,
		Header:      Header,
	}

	return f
}

func (f *Files) Create(fileName string) error {
	var e error
	f.fileName = fileName
	f.file, e = os.Create(fileName)

	return e
}

func (f *Files) FileName() string {
	return f.fileName
}

func (f *Files) Close() error {
	if f.file != nil {
		return f.file.Close()
	}

	return fmt.Errorf("no open files")
}

func (f *Files) WriteHeader(fieldNames []string) error {
	if !f.Header {
		return nil
	}

	if fieldNames == nil {
		return fmt.Errorf("field names not set in *Files")
	}

	_, e := f.file.WriteString(strings.Join(fieldNames, string(rune(f.Sep))) + string(rune(f.EOL)))

	return e
}

func (f *Files) WriteLine(v []any) error {
	var line []byte
	for ind := 0; ind < len(v); ind++ {
		var lx []byte
		switch d := v[ind].(type) {
		case float64:
			lx = []byte(fmt.Sprintf(f.FloatFormat, d))
		case int:
			lx = []byte(fmt.Sprintf("%v", d))
		case string:
			lx = []byte(d)
		default:
			lx = []byte("#err#")
		}
		line = append(line, lx...)
		if ind < len(v)-1 {
			line = append(line, f.Sep)
		}
	}
	if _, e := f.file.Write(line); e != nil {
		return e
	}
	_, e := f.file.Write([]byte{f.EOL})

	return e
}

// Save writes the frame to fileName, header first, closing the file on all
// paths.
func (f *Files) Save(fileName string, fr *Frame) error {
	if e := f.Create(fileName); e != nil {
		return e
	}
	defer func() { _ = f.Close() }()

	if e := f.WriteHeader(fr.ColumnNames()); e != nil {
		return e
	}

	for row := 0; row < fr.RowCount(); row++ {
		if e := f.WriteLine(fr.Row(row)); e != nil {
			return e
		}
	}

	return nil
}
