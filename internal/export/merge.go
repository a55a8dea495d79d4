package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"spotilists/internal/csvutil"
)

// MergeCSVFiles concatenates every CSV file in dir into outName under
// the same directory, writing the shared header once. All files must
// carry the first file's header; rows are appended in file-enumeration
// order with duplicates kept. An earlier merge result is never used as
// input.
func MergeCSVFiles(dir, outName string) error {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("error reading data directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") || name == outName {
			continue
		}
		files = append(files, name)
	}
	if len(files) == 0 {
		return fmt.Errorf("no CSV files found in %s", dir)
	}

	fmt.Printf("Found %d CSV files to merge: %s\n", len(files), strings.Join(files, ", "))

	var header []string
	var merged [][]string
	for _, name := range files {
		path := filepath.Join(dir, name)
		fmt.Printf("Processing %s...\n", path)

		records, err := csvutil.ReadCsvFile(path)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", path, err)
		}
		if len(records) == 0 {
			return fmt.Errorf("%s has no header row", path)
		}
		if header == nil {
			header = records[0]
			merged = append(merged, header)
		} else if !sameHeader(records[0], header) {
			return fmt.Errorf("%s: header does not match %s", name, files[0])
		}
		merged = append(merged, records[1:]...)
	}

	outPath := filepath.Join(dir, outName)
	fmt.Printf("Writing %d tracks to %s...\n", len(merged)-1, outPath)
	if err := csvutil.WriteCsvRecords(outPath, merged); err != nil {
		return fmt.Errorf("error writing %s: %w", outPath, err)
	}
	fmt.Printf("Successfully merged playlists into %s\n", outPath)
	return nil
}

func sameHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
