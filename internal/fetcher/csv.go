package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldmap/internal/points"
)

// CSVOptions configures delimited point-table parsing.
type CSVOptions struct {
	Delimiter rune // sniffed from the header line when 0
	Comment   rune // lines starting with it are skipped; 0 disables
}

// delimiters are tried in order when sniffing; the first with the highest
// count on the header line wins.
var delimiters = []rune{',', '\t', ';', '|'}

const (
	sniffBytes = 4096
	ctxEvery   = 1024 // rows between cancellation checks
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a headed, delimited point table. A leading byte order mark is
// dropped and every cell is trimmed. Rows may be shorter or longer than the
// header; points.New decides what to keep.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) (points.Table, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	delim := opts.Delimiter
	if delim == 0 {
		head, _ := br.Peek(sniffBytes)
		delim = sniffDelimiter(headerLine(head, opts.Comment))
	}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.Comment = opts.Comment
	reader.FieldsPerRecord = -1

	var t points.Table
	for n := 0; ; n++ {
		if n%ctxEvery == 0 {
			if err := ctx.Err(); err != nil {
				return points.Table{}, eris.Wrap(err, "csv: read cancelled")
			}
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return points.Table{}, eris.Wrap(err, "csv: read row")
		}
		for i, cell := range record {
			record[i] = strings.TrimSpace(cell)
		}
		if t.Header == nil {
			t.Header = record
			continue
		}
		t.Rows = append(t.Rows, record)
	}

	if t.Header == nil {
		return points.Table{}, eris.New("csv: missing header row")
	}
	return t, nil
}

// headerLine returns the first line of buf that is neither blank nor a
// comment.
func headerLine(buf []byte, comment rune) string {
	for _, line := range strings.Split(string(buf), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if comment != 0 && strings.HasPrefix(line, string(comment)) {
			continue
		}
		return line
	}
	return ""
}

// sniffDelimiter counts each candidate outside double quotes and picks the
// most frequent, falling back to a comma.
func sniffDelimiter(line string) rune {
	counts := make(map[rune]int, len(delimiters))
	quoted := false
	for _, r := range line {
		if r == '"' {
			quoted = !quoted
			continue
		}
		if !quoted {
			counts[r]++
		}
	}
	best, n := ',', 0
	for _, d := range delimiters {
		if counts[d] > n {
			best, n = d, counts[d]
		}
	}
	return best
}
