package stover

import "fmt"

// DataTypes are the types of data the package supports.
type DataTypes uint8

// values of DataTypes
const (
	DTunknown DataTypes = 0 + iota
	DTfloat
	DTint
	DTstring
)

func (dt DataTypes) String() string {
	switch dt {
	case DTfloat:
		return "float"
	case DTint:
		return "int"
	case DTstring:
		return "string"
	default:
		return "unknown"
	}
}

// WhatAmI returns the DataTypes value corresponding to val, which may be a
// scalar or a slice.
func WhatAmI(val any) DataTypes {
	switch val.(type) {
	case float64, []float64:
		return DTfloat
	case int, []int:
		return DTint
	case string, []string:
		return DTstring
	default:
		return DTunknown
	}
}

// Col is one column of a Frame: a name plus a slice of float64, int or string.
type Col struct {
	name  string
	dType DataTypes
	data  any
}

func NewCol(name string, data any) (*Col, error) {
	var dt DataTypes
	if dt = WhatAmI(data); dt == DTunknown {
		return nil, fmt.Errorf("unsupported data type in NewCol(%s)", name)
	}

	c := &Col{
		name:  name,
		dType: dt,
		data:  data,
	}

	return c, nil
}

func (c *Col) DataType() DataTypes {
	return c.dType
}

func (c *Col) Len() int {
	switch c.dType {
	case DTfloat:
		return len(c.data.([]float64))
	case DTint:
		return len(c.data.([]int))
	case DTstring:
		return len(c.data.([]string))
	default:
		return 0
	}
}

func (c *Col) Data() any {
	return c.data
}

// Name returns the column name, renaming it first if renameTo is non-empty.
func (c *Col) Name(renameTo string) string {
	if renameTo != "" {
		c.name = renameTo
	}

	return c.name
}

func (c *Col) Element(row int) any {
	switch c.dType {
	case DTfloat:
		return c.data.([]float64)[row]
	case DTint:
		return c.data.([]int)[row]
	case DTstring:
		return c.data.([]string)[row]
	default:
		panic(fmt.Errorf("unsupported data type in Element"))
	}
}

func (c *Col) Copy() *Col {
	var copiedData any
	n := c.Len()
	switch c.dType {
	case DTfloat:
		copiedData = make([]float64, n)
		copy(copiedData.([]float64), c.data.([]float64))
	case DTint:
		copiedData = make([]int, n)
		copy(copiedData.([]int), c.data.([]int))
	case DTstring:
		copiedData = make([]string, n)
		copy(copiedData.([]string), c.data.([]string))
	default:
		panic(fmt.Errorf("unsupported data type in Copy"))
	}

	col := &Col{
		name:  c.name,
		dType: c.dType,
		data:  copiedData,
	}

	return col
}

// Less orders by <= so that strict inequality is Less(i,j) && !Less(j,i).
func (c *Col) Less(i, j int) bool {
	switch c.dType {
	case DTfloat:
		return c.data.([]float64)[i] <= c.data.([]float64)[j]
	case DTint:
		return c.data.([]int)[i] <= c.data.([]int)[j]
	case DTstring:
		return c.data.([]string)[i] <= c.data.([]string)[j]
	default:
		panic(fmt.Errorf("unsupported data type in Less"))
	}
}

// AsFloat returns the column data as []float64, converting ints.
func (c *Col) AsFloat() ([]float64, error) {
	switch c.dType {
	case DTfloat:
		return c.data.([]float64), nil
	case DTint:
		xIn := c.data.([]int)
		x := make([]float64, len(xIn))
		for ind := 0; ind < len(xIn); ind++ {
			x[ind] = float64(xIn[ind])
		}

		return x, nil
	default:
		return nil, fmt.Errorf("column %s: cannot convert %s to float", c.name, c.dType)
	}
}

func (c *Col) AsInt() ([]int, error) {
	if c.dType != DTint {
		return nil, fmt.Errorf("column %s: cannot convert %s to int", c.name, c.dType)
	}

	return c.data.([]int), nil
}

func (c *Col) AsString() ([]string, error) {
	if c.dType != DTstring {
		return nil, fmt.Errorf("column %s: cannot convert %s to string", c.name, c.dType)
	}

	return c.data.([]string), nil
}

// take returns a new *Col holding the rows indexed by rows, in that order.
func (c *Col) take(rows []int) *Col {
	var data any
	switch c.dType {
	case DTfloat:
		x := make([]float64, len(rows))
		for ind, r := range rows {
			x[ind] = c.data.([]float64)[r]
		}
		data = x
	case DTint:
		x := make([]int, len(rows))
		for ind, r := range rows {
			x[ind] = c.data.([]int)[r]
		}
		data = x
	case DTstring:
		x := make([]string, len(rows))
		for ind, r := range rows {
			x[ind] = c.data.([]string)[r]
		}
		data = x
	default:
		panic(fmt.Errorf("unsupported data type in take"))
	}

	return &Col{name: c.name, dType: c.dType, data: data}
}
