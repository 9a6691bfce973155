package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/sigurn/crc16"

	"github.com/GustavoHSCruz/gglang/corevm"
)

// dumpHeapSnapshot appends one checksummed stats record to path. The file
// may be written to by more than one corevm-debug process at a time (a
// scripted session and an interactive one pointed at the same dump file),
// so writes are serialized with an advisory flock, the same concurrency
// discipline tinygo's own flasher uses to avoid stepping on a device lock
// held by another tool instance.
//
// Record layout: 4 x uint64 big-endian (live bytes, total collected,
// cycles, threshold) followed by a uint16 CRC16/CCITT-FALSE checksum of
// those 32 bytes, so a reader can detect a truncated or corrupted record.
func dumpHeapSnapshot(path string, stats corevm.Stats) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking heap dump %q: %w", path, err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening heap dump %q: %w", path, err)
	}
	defer f.Close()

	record := make([]byte, 32)
	binary.BigEndian.PutUint64(record[0:8], uint64(stats.LiveBytes))
	binary.BigEndian.PutUint64(record[8:16], uint64(stats.TotalCollected))
	binary.BigEndian.PutUint64(record[16:24], uint64(stats.Cycles))
	binary.BigEndian.PutUint64(record[24:32], uint64(stats.Threshold))

	sum := crc16.Checksum(record, crc16.MakeTable(crc16.CRC16_CCITT_FALSE))
	checksum := make([]byte, 2)
	binary.BigEndian.PutUint16(checksum, sum)

	if _, err := f.Write(append(record, checksum...)); err != nil {
		return fmt.Errorf("writing heap dump record: %w", err)
	}
	return nil
}
