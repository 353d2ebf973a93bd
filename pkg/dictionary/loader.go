package dictionary

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// LoadResult carries the outcome of an asynchronous load.
type LoadResult struct {
	Store *Store
	Err   error
}

// LoadFile opens filename and decodes it. FormatUnknown detects the format
// from the extension.
func LoadFile(filename string, format Format) (*Store, error) {
	if format == FormatUnknown {
		detected, err := DetectFormat(filename)
		if err != nil {
			return nil, &LoadError{Source: filename, Format: format, Err: err}
		}
		format = detected
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, &LoadError{Source: filename, Format: format, Err: err}
	}
	defer file.Close()

	store, err := Load(bufio.NewReader(file), format)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Source = filename
		}
		return nil, err
	}
	log.Debugf("Loaded %d entries from %s", store.Len(), filename)
	return store, nil
}

// LoadFileAsync runs LoadFile in the background. The channel receives
// exactly one result and is then closed.
func LoadFileAsync(filename string, format Format) <-chan LoadResult {
	ch := make(chan LoadResult, 1)
	go func() {
		defer close(ch)
		store, err := LoadFile(filename, format)
		ch <- LoadResult{Store: store, Err: err}
	}()
	return ch
}

// Load decodes a dictionary stream in the given format.
func Load(r io.Reader, format Format) (*Store, error) {
	var (
		entries []Entry
		err     error
	)
	switch format {
	case FormatJSON:
		entries, err = readJSON(r)
	case FormatMsgpack:
		entries, err = readMsgpack(r)
	case FormatText:
		entries, err = readText(r)
	default:
		err = fmt.Errorf("unsupported format")
	}
	if err != nil {
		return nil, &LoadError{Format: format, Err: err}
	}
	return newStore(entries), nil
}

func readJSON(r io.Reader) ([]Entry, error) {
	var raw []jsonEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, j := range raw {
		entries = append(entries, j.entry())
	}
	return entries, nil
}

func readMsgpack(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode msgpack: %w", err)
	}
	return entries, nil
}

// readText parses "text<TAB>pinyin<TAB>frequency" lines. Blank lines and
// lines starting with # are ignored. A missing frequency counts as 0.
func readText(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected at least 2 tab separated fields, got %d", lineNo, len(fields))
		}
		entry := Entry{Text: fields[0], Pinyin: fields[1]}
		if len(fields) > 2 && strings.TrimSpace(fields[2]) != "" {
			freq, err := strconv.Atoi(strings.TrimSpace(fields[2]))
			if err != nil {
				return nil, fmt.Errorf("line %d: bad frequency %q: %w", lineNo, fields[2], err)
			}
			entry.Frequency = freq
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return entries, nil
}

// WriteMsgpack encodes entries in the compact msgpack format read by Load.
func WriteMsgpack(w io.Writer, entries []Entry) error {
	return msgpack.NewEncoder(w).Encode(entries)
}
