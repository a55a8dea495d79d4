package csvutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unicode"
)

// StructToCsvHeader takes a struct type and returns a slice of strings representing the CSV header.
// It uses the `csv` tag on struct fields to determine the header name.
// If a field doesn't have a `csv` tag, the field name is used.
func StructToCsvHeader(t reflect.Type) []string {
	var headers []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		csvTag := field.Tag.Get("csv")

		// If the csv tag is present, use it as the header name, otherwise use the field name.
		headerName := field.Name
		if csvTag != "" {
			headerName = csvTag
		}
		headers = append(headers, headerName)
	}
	return headers
}

// WriteToCsvFile writes the given headers and data to a CSV file at the specified filePath,
// creating the parent directory when it does not exist yet.
// For slices, it joins the elements using ", " to handle multi-value fields.
func WriteToCsvFile[T any](filePath string, headers []string, data []T) error {
	if err := ensureDir(filePath); err != nil {
		return err
	}
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	// Write the headers
	if err := writer.Write(headers); err != nil {
		return err
	}

	// Write the data rows
	for _, item := range data {
		row := make([]string, len(headers))
		v := reflect.ValueOf(item)

		// If item is a pointer, get the value it points to
		if v.Kind() == reflect.Ptr {
			v = v.Elem()
		}

		if v.Kind() != reflect.Struct {
			return fmt.Errorf("data must be a slice of structs")
		}

		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			fieldValue := v.Field(i)

			// Get the index in the headers slice
			csvTag := field.Tag.Get("csv")
			headerName := field.Name
			if csvTag != "" {
				headerName = csvTag
			}

			idx := indexOf(headers, headerName)
			if idx < 0 {
				continue // Skip fields not in the headers
			}

			// Convert field value to string based on its kind
			var strValue string
			if fieldValue.Kind() == reflect.Slice {
				var sliceValues []string
				for j := 0; j < fieldValue.Len(); j++ {
					sliceValues = append(sliceValues, fmt.Sprintf("%v", fieldValue.Index(j).Interface()))
				}
				strValue = strings.Join(sliceValues, ", ")
			} else {
				strValue = fmt.Sprintf("%v", fieldValue.Interface())
			}

			row[idx] = strValue
		}

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	// Flush buffered rows and report any write error they hit.
	writer.Flush()
	return writer.Error()
}

// WriteCsvRecords writes pre-assembled records, header included, to a CSV file
// at the specified filePath.
func WriteCsvRecords(filePath string, records [][]string) error {
	if err := ensureDir(filePath); err != nil {
		return err
	}
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return csv.NewWriter(file).WriteAll(records)
}

// ReadCsvFile reads all records from the CSV file at filePath.
func ReadCsvFile(filePath string) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return csv.NewReader(file).ReadAll()
}

// SafeFileName turns a playlist name into a usable CSV file name. It keeps
// letters, digits, spaces, dashes and underscores, drops everything else,
// and falls back to "Unknown" when nothing survives.
func SafeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.TrimRight(b.String(), " ")
	if safe == "" {
		safe = "Unknown"
	}
	return safe + ".csv"
}

func ensureDir(filePath string) error {
	dir := filepath.Dir(filePath)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// indexOf returns the index of a string in a slice or -1 if not found
func indexOf(slice []string, item string) int {
	for i, v := range slice {
		if v == item {
			return i
		}
	}
	return -1
}
