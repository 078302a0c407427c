// Package csvutil reads the operator-supplied CSV inputs (email
// batches, account IDs, entity GUIDs) and writes report exports.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Recognized header names for the email column. A first row matching
// one of these (case-insensitive) is treated as a header and skipped.
var emailHeaders = map[string]bool{
	"email":         true,
	"emails":        true,
	"email address": true,
	"address":       true,
}

// ReadEmails reads email addresses from the first column of a CSV file.
// A header row is optional.
func ReadEmails(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	emails, err := ReadEmailsFrom(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return emails, nil
}

// ReadEmailsFrom reads email addresses from the first column of CSV data.
func ReadEmailsFrom(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	first, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV input is empty")
	}
	if err != nil {
		return nil, err
	}

	var emails []string
	if len(first) > 0 {
		col := strings.TrimSpace(first[0])
		if !emailHeaders[strings.ToLower(col)] && col != "" {
			emails = append(emails, col)
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		if v := strings.TrimSpace(row[0]); v != "" {
			emails = append(emails, v)
		}
	}

	if len(emails) == 0 {
		return nil, fmt.Errorf("no emails found in CSV input")
	}
	return emails, nil
}

// ReadAccountIDs reads numeric account IDs from the first column of a
// CSV file. A non-numeric first row is treated as a header and skipped.
func ReadAccountIDs(path string) ([]int, error) {
	rows, err := readFirstColumn(path)
	if err != nil {
		return nil, err
	}

	var ids []int
	for i, v := range rows {
		id, err := strconv.Atoi(v)
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("row %d: invalid account ID %q", i+1, v)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no account IDs found in %s", path)
	}
	return ids, nil
}

// ReadGUIDs reads entity GUIDs from the first column of a CSV file.
func ReadGUIDs(path string) ([]string, error) {
	rows, err := readFirstColumn(path)
	if err != nil {
		return nil, err
	}
	var guids []string
	for i, v := range rows {
		if i == 0 && (strings.EqualFold(v, "guid") || strings.EqualFold(v, "entityGuid")) {
			continue
		}
		guids = append(guids, v)
	}
	if len(guids) == 0 {
		return nil, fmt.Errorf("no GUIDs found in %s", path)
	}
	return guids, nil
}

func readFirstColumn(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var out []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if len(row) == 0 {
			continue
		}
		if v := strings.TrimSpace(row[0]); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

// WriteAll writes a header row plus data rows to path.
func WriteAll(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
