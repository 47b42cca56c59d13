package workload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/noclat/congestion"
)

// ErrInvalidGraph is returned when a graph file cannot be parsed.
var ErrInvalidGraph = errors.New("invalid graph")

// ReadGraph parses one "src,dst,volume" transmission per line. Tuples in
// parentheses are accepted. Empty lines and lines starting with # are
// skipped.
func ReadGraph(r io.Reader) ([]congestion.Volume, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = 3

	graph := []congestion.Volume{}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidGraph, err)
		}

		line, _ := reader.FieldPos(0)

		v, err := parseVolume(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidGraph, line, err)
		}

		graph = append(graph, v)
	}

	return graph, nil
}

func parseVolume(record []string) (congestion.Volume, error) {
	for i := range record {
		record[i] = strings.Trim(record[i], " ()")
	}

	src, err := strconv.Atoi(record[0])
	if err != nil {
		return congestion.Volume{}, err
	}

	dst, err := strconv.Atoi(record[1])
	if err != nil {
		return congestion.Volume{}, err
	}

	volume, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return congestion.Volume{}, err
	}

	return congestion.Volume{Src: src, Dst: dst, Volume: volume}, nil
}

// WriteGraph writes one "src,dst,volume" line per transmission.
func WriteGraph(w io.Writer, graph []congestion.Volume) error {
	writer := csv.NewWriter(w)

	for _, v := range graph {
		err := writer.Write([]string{
			strconv.Itoa(v.Src),
			strconv.Itoa(v.Dst),
			strconv.FormatFloat(v.Volume, 'g', -1, 64),
		})
		if err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

// LoadGraph reads a graph file.
func LoadGraph(filename string) ([]congestion.Volume, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadGraph(f)
}

// SaveGraph writes a graph file.
func SaveGraph(filename string, graph []congestion.Volume) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	err = WriteGraph(f, graph)
	if err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
