package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// loadPicks returns the record ids saved in the picks file, in the order they
// were picked. A missing file means no picks yet.
func loadPicks(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var ids []int
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid record id %q", path, line, raw)
		}
		ids = append(ids, id)
	}
	return ids, scanner.Err()
}

// savePick appends id to the picks file unless it is already there. It
// reports whether the id was added.
func savePick(path string, id int) (bool, error) {
	existing, err := loadPicks(path)
	if err != nil {
		return false, err
	}
	for _, known := range existing {
		if known == id {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, id); err != nil {
		return false, err
	}
	return true, nil
}
