package graph

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadEdgeList parses CSV rows of the form
//
//	source,target[,weight]
//
// Lines starting with '#' are comments. A first row whose source column is
// not an integer is treated as a header. Rows either all carry a weight or
// none do.
func ReadEdgeList(r io.Reader, opts ...BuilderOption) (*Graph, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	b := NewBuilder(opts...)
	columns := 0
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read edge list: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if row == 0 && isHeader(record) {
			continue
		}
		if len(record) != 2 && len(record) != 3 {
			return nil, fmt.Errorf("line %d: expected 2 or 3 columns, got %d", line, len(record))
		}
		if columns == 0 {
			columns = len(record)
		} else if len(record) != columns {
			return nil, fmt.Errorf("line %d: expected %d columns like the first row, got %d", line, columns, len(record))
		}

		source, err := parseID(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: source: %w", line, err)
		}
		target, err := parseID(record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: target: %w", line, err)
		}
		if columns == 2 {
			b.AddRelationship(source, target)
			continue
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: weight: %w", line, err)
		}
		b.AddWeightedRelationship(source, target, weight)
	}
	return b.Build(), nil
}

// LoadEdgeList reads an edge list file.
func LoadEdgeList(path string, opts ...BuilderOption) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open edge list: %w", err)
	}
	defer f.Close()

	g, err := ReadEdgeList(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	_, err := parseID(record[0])
	return err != nil
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
