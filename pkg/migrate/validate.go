package migrate

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var migrationNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	annotationUp   = "-- +goose Up"
	annotationDown = "-- +goose Down"
	statementBegin = "-- +goose StatementBegin"
	statementEnd   = "-- +goose StatementEnd"
)

// ValidateDir checks every .sql file in dir and reports all problems at once:
// filename format, duplicate versions, Up/Down annotations in order, and
// balanced StatementBegin/StatementEnd blocks.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	versions := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".sql" {
			continue
		}
		m := migrationNameRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if prev, ok := versions[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, m[1], prev))
		}
		versions[m[1]] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkAnnotations(name, body))
	}
	return errs
}

func checkAnnotations(name string, body []byte) error {
	var (
		errs     error
		upLine   int
		downLine int
		open     int
	)
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		switch strings.TrimSpace(scanner.Text()) {
		case annotationUp:
			upLine = lineNo
		case annotationDown:
			downLine = lineNo
		case statementBegin:
			if open > 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: nested StatementBegin", name, lineNo))
			}
			open++
		case statementEnd:
			if open == 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: StatementEnd without StatementBegin", name, lineNo))
				continue
			}
			open--
		}
	}
	switch {
	case upLine == 0:
		errs = multierr.Append(errs, fmt.Errorf("%s: missing %q", name, annotationUp))
	case downLine == 0:
		errs = multierr.Append(errs, fmt.Errorf("%s: missing %q", name, annotationDown))
	case downLine < upLine:
		errs = multierr.Append(errs, fmt.Errorf("%s: Down section precedes Up", name))
	}
	if open != 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s: unterminated StatementBegin", name))
	}
	return errs
}
