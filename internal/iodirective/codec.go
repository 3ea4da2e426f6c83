package iodirective

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"ramlvm/internal/ram"
	"ramlvm/internal/symbol"
)

func floatFromBits(bits uint64) float64 { return math.Float64frombits(bits) }

// delimiter is the only format this package implements: tab-separated
// fields, one tuple per line, matching Soufflé's default .facts format
// (spec.md §6 names TSV as one of the supported formats).
const delimiter = '\t'

// decodeField turns one TSV cell into a ram.Value. There's no column
// type information available at this layer (Directives.Load only
// carries arity), so a cell is a signed integer if it parses as one,
// else a symbol, interned against symbols so repeated values collapse
// to the same id the way every other symbol reference does.
func decodeField(field string, symbols *symbol.Table) ram.Value {
	if n, err := strconv.ParseInt(field, 10, 64); err == nil {
		return ram.Int(n)
	}
	return ram.Sym(symbols.Intern(field))
}

func encodeField(v ram.Value, symbols *symbol.Table) string {
	switch v.Kind {
	case ram.KindSigned:
		return strconv.FormatInt(v.Int64(), 10)
	case ram.KindUnsigned:
		return strconv.FormatUint(v.Bits, 10)
	case ram.KindFloat:
		return strconv.FormatFloat(floatFromBits(v.Bits), 'g', -1, 64)
	case ram.KindSymbol:
		return symbols.Resolve(v.SymbolID())
	default:
		return strconv.FormatUint(v.Bits, 10)
	}
}

func decodeLine(line string, arity int, symbols *symbol.Table) (ram.Tuple, error) {
	fields := strings.Split(line, string(delimiter))
	if len(fields) != arity {
		return nil, fmt.Errorf("iodirective: row has %d fields, relation has arity %d", len(fields), arity)
	}
	tuple := make(ram.Tuple, arity)
	for i, f := range fields {
		tuple[i] = decodeField(f, symbols)
	}
	return tuple, nil
}

// decodeAll reads every line of r as a tab-separated tuple of the
// given arity.
func decodeAll(r io.Reader, arity int, symbols *symbol.Table) ([]ram.Tuple, error) {
	var tuples []ram.Tuple
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		tuple, err := decodeLine(line, arity, symbols)
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, tuple)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tuples, nil
}

// encodeAll writes each tuple as one tab-separated line to w.
func encodeAll(w io.Writer, tuples []ram.Tuple, symbols *symbol.Table) error {
	buf := bufio.NewWriter(w)
	for _, t := range tuples {
		fields := make([]string, len(t))
		for i, v := range t {
			fields[i] = encodeField(v, symbols)
		}
		if _, err := buf.WriteString(strings.Join(fields, string(delimiter))); err != nil {
			return err
		}
		if err := buf.WriteByte('\n'); err != nil {
			return err
		}
	}
	return buf.Flush()
}
