package queries

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads search keywords from a headerless CSV file, one per row, taking
// the first field of each row. A file without keywords yields an empty list.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open queries file: %w", err)
	}
	defer f.Close()

	keywords, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return keywords, nil
}

func Read(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var keywords []string
	first := true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(record) == 0 {
			continue
		}

		keyword := record[0]
		if first {
			keyword = strings.TrimPrefix(keyword, "\ufeff")
			first = false
		}

		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}

		keywords = append(keywords, keyword)
	}

	return keywords, nil
}
