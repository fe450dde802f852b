// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

// Package sqldump recovers structured rows from a legacy MySQL dump file
// without a SQL engine.
//
// The dump is plain text containing INSERT INTO statements. Tokenize scans
// the VALUES clauses of one table's statements with a character-level state
// machine that understands single/double/backtick quoting, backslash escapes,
// doubled-quote escapes, and nested parentheses, and produces positional rows
// of scalar values.
//
// The tokenizer is tolerant by design: a malformed statement (unbalanced
// quotes or parentheses) loses only its partially-built row; completed rows
// are kept and scanning resumes at the next INSERT for the same table. Every
// dropped row is counted in Stats so the caller can surface it in the final
// migration report.
package sqldump

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/inkporter/internal/logging"
)

// ErrTableNotFound is returned when the dump contains no INSERT statement
// for the requested table. Callers decide whether that is fatal.
var ErrTableNotFound = errors.New("sqldump: table not found in dump")

// ErrNoColumnList is returned by Columns when the table's INSERT statements
// carry no explicit column list (mysqldump default without --complete-insert).
var ErrNoColumnList = errors.New("sqldump: insert statements have no column list")

// Value is one scalar from a VALUES tuple: either a string or SQL NULL.
// An empty string is distinct from NULL.
type Value struct {
	Str  string
	Null bool
}

// String returns a non-null Value holding s.
func String(s string) Value { return Value{Str: s} }

// Null returns the SQL NULL value.
func Null() Value { return Value{Null: true} }

// Row is one tuple from a VALUES clause, positionally aligned to the
// table's column schema.
type Row []Value

// Stats counts what the tokenizer saw. DroppedRows in particular feeds the
// migration report: tolerant parsing never hides how much it threw away.
type Stats struct {
	Statements  int
	Rows        int
	DroppedRows int
}

// scanState is the quoting context of the tokenizer state machine.
type scanState int

const (
	stateNormal scanState = iota
	stateSingleQuote
	stateDoubleQuote
	stateBacktick
)

// Tokenize scans dump for INSERT INTO statements targeting table and returns
// every row of their VALUES clauses. Malformed statements are dropped with a
// logged diagnostic and counted in Stats; they never abort the parse. The
// only error condition is the table being entirely absent from the dump.
func Tokenize(dump, table string) ([]Row, *Stats, error) {
	marker := "INSERT INTO `" + table + "`"
	stats := &Stats{}

	pos := strings.Index(dump, marker)
	if pos < 0 {
		return nil, stats, fmt.Errorf("%w: %q", ErrTableNotFound, table)
	}

	var rows []Row
	for pos >= 0 {
		stats.Statements++
		body := dump[pos+len(marker):]

		parsed, consumed, err := scanStatement(body)
		rows = append(rows, parsed...)
		stats.Rows += len(parsed)

		searchFrom := consumed
		if err != nil {
			stats.DroppedRows++
			logging.Warn().
				Err(err).
				Str("table", table).
				Int("offset", pos).
				Int("rows_kept", len(parsed)).
				Msg("Malformed INSERT statement, partial row dropped")
			// A runaway quote may have swallowed the next statement, so
			// recovery rescans the failed region for the marker.
			searchFrom = 0
		}

		next := strings.Index(body[searchFrom:], marker)
		if next < 0 {
			break
		}
		pos += len(marker) + searchFrom + next
	}

	return rows, stats, nil
}

// Columns extracts the table's column schema from the first INSERT statement
// that carries an explicit column list. The schema is immutable for a dump;
// deriving it once is enough.
func Columns(dump, table string) ([]string, error) {
	marker := "INSERT INTO `" + table + "`"

	search := dump
	found := false
	for {
		pos := strings.Index(search, marker)
		if pos < 0 {
			break
		}
		found = true

		rest := strings.TrimLeft(search[pos+len(marker):], " \t\r\n")
		if strings.HasPrefix(rest, "(") {
			cols, _, err := parseColumnList(rest)
			return cols, err
		}
		search = search[pos+len(marker):]
	}

	if !found {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, table)
	}
	return nil, fmt.Errorf("%w: table %q", ErrNoColumnList, table)
}

// parseColumnList reads the leading "(`a`, `b`, ...)" group from s and
// returns the column names plus the number of bytes consumed.
func parseColumnList(s string) ([]string, int, error) {
	var cols []string
	var buf strings.Builder
	inBacktick := false

	flush := func() {
		name := strings.TrimSpace(buf.String())
		if name != "" {
			cols = append(cols, name)
		}
		buf.Reset()
	}

	for i := 1; i < len(s); i++ {
		ch := s[i]
		switch {
		case inBacktick:
			if ch == '`' {
				inBacktick = false
			} else {
				buf.WriteByte(ch)
			}
		case ch == '`':
			inBacktick = true
		case ch == ',':
			flush()
		case ch == ')':
			flush()
			if len(cols) == 0 {
				return nil, i + 1, fmt.Errorf("sqldump: empty column list")
			}
			return cols, i + 1, nil
		default:
			if !isSpace(ch) {
				buf.WriteByte(ch)
			}
		}
	}
	return nil, len(s), fmt.Errorf("sqldump: unterminated column list")
}

// scanStatement tokenizes one statement body (everything after the table
// marker) up to its terminating semicolon. It returns the completed rows,
// how many bytes were consumed, and a non-nil error when the statement ended
// with an unbalanced quote or parenthesis, in which case the in-flight row
// was discarded.
func scanStatement(body string) ([]Row, int, error) {
	start := 0
	for start < len(body) && isSpace(body[start]) {
		start++
	}

	// An explicit column list precedes the VALUES keyword; skip it so its
	// identifiers are not mistaken for a data tuple.
	if start < len(body) && body[start] == '(' {
		_, n, err := parseColumnList(body[start:])
		if err != nil {
			return nil, start + n, err
		}
		start += n
	}

	var (
		rows       []Row
		current    Row
		buf        strings.Builder
		state      = stateNormal
		escapeNext = false
		inValue    = false
		quoted     = false
		depth      = 0
	)

	closeValue := func() {
		raw := buf.String()
		buf.Reset()
		inValue = false
		if !quoted {
			raw = strings.TrimSpace(raw)
			if raw == "NULL" {
				current = append(current, Null())
				return
			}
		}
		quoted = false
		current = append(current, String(raw))
	}

	for i := start; i < len(body); i++ {
		ch := body[i]

		if escapeNext {
			// Backslash escapes inside quoted strings: control escapes map
			// to their real characters, everything else passes through.
			switch ch {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case '0':
				buf.WriteByte(0)
			default:
				buf.WriteByte(ch)
			}
			escapeNext = false
			continue
		}

		switch state {
		case stateSingleQuote:
			switch ch {
			case '\\':
				escapeNext = true
			case '\'':
				// Doubled quote is an escaped literal quote.
				if i+1 < len(body) && body[i+1] == '\'' {
					buf.WriteByte('\'')
					i++
				} else {
					state = stateNormal
				}
			default:
				buf.WriteByte(ch)
			}

		case stateDoubleQuote:
			switch ch {
			case '\\':
				escapeNext = true
			case '"':
				if i+1 < len(body) && body[i+1] == '"' {
					buf.WriteByte('"')
					i++
				} else {
					state = stateNormal
				}
			default:
				buf.WriteByte(ch)
			}

		case stateBacktick:
			if ch == '`' {
				state = stateNormal
			} else {
				buf.WriteByte(ch)
			}

		case stateNormal:
			switch ch {
			case '\'':
				if depth >= 1 {
					state = stateSingleQuote
					inValue = true
					quoted = true
				}
			case '"':
				if depth >= 1 {
					state = stateDoubleQuote
					inValue = true
					quoted = true
				}
			case '`':
				state = stateBacktick
			case '(':
				depth++
				if depth == 1 {
					current = nil
				} else {
					// Nested paren inside an unquoted value.
					inValue = true
					buf.WriteByte(ch)
				}
			case ')':
				if depth == 0 {
					return rows, i + 1, fmt.Errorf("unbalanced ')' at byte %d", i)
				}
				depth--
				if depth == 0 {
					if inValue || len(current) > 0 {
						closeValue()
					}
					if len(current) > 0 {
						rows = append(rows, current)
					}
					current = nil
				} else {
					buf.WriteByte(ch)
				}
			case ',':
				if depth == 1 {
					closeValue()
				} else if depth > 1 {
					buf.WriteByte(ch)
				}
			case ';':
				if depth == 0 {
					return rows, i + 1, nil
				}
				buf.WriteByte(ch)
			default:
				if depth >= 1 && (inValue || !isSpace(ch)) {
					inValue = true
					buf.WriteByte(ch)
				}
			}
		}
	}

	// Ran off the end of the dump mid-statement.
	if state != stateNormal || depth != 0 {
		return rows, len(body), fmt.Errorf("statement truncated (depth=%d, quoted=%t)", depth, state != stateNormal)
	}
	return rows, len(body), nil
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}
