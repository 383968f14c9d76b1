package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/sirupsen/logrus"
)

// PartitionSuffix ends every result partition name
const PartitionSuffix = "_results.json"

const partitionDateLayout = "20060102"

// ResultStore is the append-only result log, partitioned by local date
type ResultStore struct {
	backend StorageInterface
	mu      sync.Mutex
	now     func() time.Time
}

// NewResultStore creates a result log over a storage backend
func NewResultStore(backend StorageInterface) *ResultStore {
	return &ResultStore{
		backend: backend,
		now:     config.Now,
	}
}

// PartitionName returns the partition that holds records written at t
func PartitionName(t time.Time) string {
	return t.In(config.Location).Format(partitionDateLayout) + PartitionSuffix
}

// Append adds a record to the partition of its timestamp. The read-modify-write
// cycle is serialized so concurrent appends never lose records.
func (s *ResultStore) Append(record models.Record) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = s.now()
	}
	name := PartitionName(record.Timestamp)

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readPartition(name)
	if err != nil {
		return err
	}

	records = append(records, record)

	data, err := encodeRecords(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	if err := s.backend.Store(name, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}

	logrus.Debugf("Appended record to %s (%d total)", name, len(records))
	return nil
}

// LoadPartition returns the records written on the local date of day
func (s *ResultStore) LoadPartition(day time.Time) ([]models.Record, error) {
	data, err := s.backend.Retrieve(PartitionName(day))
	if errors.Is(err, ErrNotFound) {
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, err
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", PartitionName(day), err)
	}
	return records, nil
}

// LoadAll concatenates every partition whose date is within the last days days,
// today included. days <= 0 loads everything. Unreadable partitions are skipped.
func (s *ResultStore) LoadAll(days int) ([]models.Record, error) {
	names, err := s.backend.List("")
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	var cutoff time.Time
	if days > 0 {
		now := s.now().In(config.Location)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, config.Location)
		cutoff = today.AddDate(0, 0, -(days - 1))
	}

	records := []models.Record{}
	for _, name := range names {
		if !strings.HasSuffix(name, PartitionSuffix) {
			continue
		}

		if days > 0 {
			datePart := strings.TrimSuffix(name, PartitionSuffix)
			fileDate, err := time.ParseInLocation(partitionDateLayout, datePart, config.Location)
			if err == nil && fileDate.Before(cutoff) {
				continue
			}
		}

		data, err := s.backend.Retrieve(name)
		if err != nil {
			logrus.Warnf("Skipping partition %s: %v", name, err)
			continue
		}

		var partition []models.Record
		if err := json.Unmarshal(data, &partition); err != nil {
			logrus.Warnf("Skipping corrupt partition %s: %v", name, err)
			continue
		}
		records = append(records, partition...)
	}

	return records, nil
}

// readPartition loads a partition for appending. A corrupt partition is copied
// to a backup and then treated as empty.
func (s *ResultStore) readPartition(name string) ([]models.Record, error) {
	data, err := s.backend.Retrieve(name)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		backup := fmt.Sprintf("%s.corrupt-%d", name, time.Now().UnixNano())
		logrus.Errorf("Partition %s is corrupt (%v), backing up to %s", name, err, backup)
		if err := s.backend.Store(backup, data); err != nil {
			return nil, fmt.Errorf("failed to back up corrupt %s: %w", name, err)
		}
		return nil, nil
	}

	return records, nil
}

func encodeRecords(records []models.Record) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
