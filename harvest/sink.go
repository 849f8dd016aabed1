package harvest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Sink appends one durable record per captured item to two synchronized
// outputs: a CSV file and a JSONL file. Both are append-only across runs and
// flushed + synced after every record, so an interruption between any two
// appends leaves only whole records behind.
type Sink struct {
	csvPath   string
	jsonlPath string

	csvFile   *os.File
	csvW      *csv.Writer
	jsonlFile *os.File
}

// OpenSink opens (or creates) both outputs in append mode. The CSV header
// row is written only when the CSV file is newly created, so re-running
// against the same targets keeps accumulating records under one header.
func OpenSink(csvPath, jsonlPath string) (*Sink, error) {
	for _, p := range []string{csvPath, jsonlPath} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create output dir: %w", err)
			}
		}
	}

	_, statErr := os.Stat(csvPath)
	newCSV := os.IsNotExist(statErr)

	csvFile, err := os.OpenFile(csvPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv output: %w", err)
	}

	jsonlFile, err := os.OpenFile(jsonlPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		csvFile.Close()
		return nil, fmt.Errorf("open jsonl output: %w", err)
	}

	s := &Sink{
		csvPath:   csvPath,
		jsonlPath: jsonlPath,
		csvFile:   csvFile,
		csvW:      csv.NewWriter(csvFile),
		jsonlFile: jsonlFile,
	}

	if newCSV {
		if err := s.csvW.Write(csvHeader); err != nil {
			s.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		if err := s.flushCSV(); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// Append writes the item to both outputs and forces each to disk before
// returning. A record is either fully present in an output or not there.
func (s *Sink) Append(item *CapturedItem) error {
	if err := s.csvW.Write(item.csvRecord()); err != nil {
		return fmt.Errorf("write csv record: %w", err)
	}
	if err := s.flushCSV(); err != nil {
		return err
	}

	line, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal jsonl record: %w", err)
	}
	line = append(line, '\n')
	if _, err := s.jsonlFile.Write(line); err != nil {
		return fmt.Errorf("write jsonl record: %w", err)
	}
	if err := s.jsonlFile.Sync(); err != nil {
		return fmt.Errorf("sync jsonl output: %w", err)
	}

	return nil
}

func (s *Sink) flushCSV() error {
	s.csvW.Flush()
	if err := s.csvW.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	if err := s.csvFile.Sync(); err != nil {
		return fmt.Errorf("sync csv output: %w", err)
	}
	return nil
}

// Paths returns the two output paths for reporting.
func (s *Sink) Paths() (csvPath, jsonlPath string) {
	return s.csvPath, s.jsonlPath
}

// Close closes both outputs. Append flushes per record, so Close has nothing
// left to flush.
func (s *Sink) Close() error {
	var firstErr error
	if err := s.csvFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.jsonlFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ReplayIDs streams the video ids recorded in an existing JSONL output. The
// harvester preloads these into the seen set so a re-run against the same
// outputs never records a duplicate id. A missing file is an empty replay.
func ReplayIDs(jsonlPath string) ([]string, error) {
	f, err := os.Open(jsonlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open jsonl for replay: %w", err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var rec struct {
			ID string `json:"video_id"`
		}
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue // tolerate a torn trailing line from a hard kill
		}
		if rec.ID != "" {
			ids = append(ids, rec.ID)
		}
	}
	if err := sc.Err(); err != nil {
		return ids, fmt.Errorf("scan jsonl for replay: %w", err)
	}
	return ids, nil
}
