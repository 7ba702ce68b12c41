package collada

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// parseFloats parses whitespace separated floating point numbers.
// Any token that is not a number fails the whole list.
func parseFloats(raw string) ([]float64, error) {
	fields := strings.Fields(raw)
	floats := make([]float64, len(fields))
	for i, f := range fields {
		num, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		floats[i] = num
	}
	return floats, nil
}

// parseInts parses whitespace separated integers
func parseInts(raw string) ([]int, error) {
	fields := strings.Fields(raw)
	ints := make([]int, len(fields))
	for i, f := range fields {
		num, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		ints[i] = num
	}
	return ints, nil
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

// parseFixed parses exactly n floats
func parseFixed(raw string, n int) ([]float64, error) {
	floats, err := parseFloats(raw)
	if err != nil {
		return nil, err
	}
	if len(floats) != n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(floats))
	}
	return floats, nil
}

// parseMatrix parses a row-major 4x4 matrix as written in the document.
func parseMatrix(raw string) (mgl64.Mat4, error) {
	floats, err := parseFixed(raw, 16)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return RowMajor(floats), nil
}

// RowMajor converts 16 row-major values into a (column-major) Mat4.
func RowMajor(v []float64) mgl64.Mat4 {
	var m mgl64.Mat4
	copy(m[:], v[:16])
	return m.Transpose()
}

// trimRef strips the leading '#' of a local URI fragment
func trimRef(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), "#")
}

func attrInt(el *Element, name string, def int) (int, error) {
	raw := el.Attr(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
