package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ConsoleWriter writes log entries to a terminal stream
type ConsoleWriter struct {
	mu     sync.Mutex
	writer *os.File
}

// NewConsoleWriter creates a console writer on stdout
func NewConsoleWriter() *ConsoleWriter {
	return &ConsoleWriter{writer: os.Stdout}
}

// NewConsoleWriterWithFile creates a console writer on a specific stream
func NewConsoleWriterWithFile(file *os.File) *ConsoleWriter {
	return &ConsoleWriter{writer: file}
}

// Write writes data to the console
func (w *ConsoleWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.writer.Write(data)
	return err
}

// Flush flushes the console writer
func (w *ConsoleWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writer.Sync()
}

// Close closes the console writer. Stdout and stderr stay open.
func (w *ConsoleWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writer == os.Stdout || w.writer == os.Stderr {
		return nil
	}
	return w.writer.Close()
}

// GetName returns the name of the writer
func (w *ConsoleWriter) GetName() string {
	return "console"
}

// FileWriter appends log entries to a file
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	filePath string
}

// NewFileWriter creates a new file writer
func NewFileWriter(filePath string) (*FileWriter, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: file, filePath: filePath}, nil
}

// CreateFileWriter creates a file writer, rotating when the config asks for it
func CreateFileWriter(path string, config *LoggerConfig) (Writer, error) {
	if config == nil || config.Rotation == nil {
		return NewFileWriter(path)
	}
	return NewRotatingFileWriter(path, config.Rotation.MaxSize, config.Rotation.MaxBackups)
}

// Write writes data to the file
func (w *FileWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.file.Write(data)
	return err
}

// Flush flushes the file writer
func (w *FileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

// Close closes the file writer
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// GetName returns the name of the writer
func (w *FileWriter) GetName() string {
	return fmt.Sprintf("file:%s", w.filePath)
}

// RotatingFileWriter is a file writer that rotates by size and prunes old
// backups. Session logs grow without bound otherwise.
type RotatingFileWriter struct {
	mu          sync.Mutex
	file        *os.File
	filePath    string
	currentSize int64
	maxSize     int64
	maxBackups  int
}

// NewRotatingFileWriter creates a new rotating file writer
func NewRotatingFileWriter(filePath string, maxSize int64, maxBackups int) (*RotatingFileWriter, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	return &RotatingFileWriter{
		file:        file,
		filePath:    filePath,
		currentSize: info.Size(),
		maxSize:     maxSize,
		maxBackups:  maxBackups,
	}, nil
}

// Write writes data to the file, rotating first when the size cap is hit
func (w *RotatingFileWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxSize > 0 && w.currentSize+int64(len(data)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return fmt.Errorf("rotation failed: %w", err)
		}
	}

	n, err := w.file.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write to log file: %w", err)
	}
	w.currentSize += int64(n)
	return nil
}

func (w *RotatingFileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close current log file: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	backupPath := fmt.Sprintf("%s.%s", w.filePath, timestamp)
	if err := os.Rename(w.filePath, backupPath); err != nil {
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	if err := w.cleanupOldBackups(); err != nil {
		return fmt.Errorf("failed to cleanup old backups: %w", err)
	}

	file, err := os.OpenFile(w.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create new log file: %w", err)
	}
	w.file = file
	w.currentSize = 0
	return nil
}

func (w *RotatingFileWriter) cleanupOldBackups() error {
	if w.maxBackups <= 0 {
		return nil
	}

	dir := filepath.Dir(w.filePath)
	base := filepath.Base(w.filePath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	type backup struct {
		name    string
		modTime time.Time
	}
	var backups []backup
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), base+".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{name: entry.Name(), modTime: info.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})

	for i := w.maxBackups; i < len(backups); i++ {
		fullPath := filepath.Join(dir, backups[i].name)
		if err := os.Remove(fullPath); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", fullPath, err)
		}
	}
	return nil
}

// Flush flushes the file writer
func (w *RotatingFileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

// Close closes the file writer
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// GetName returns the name of the writer
func (w *RotatingFileWriter) GetName() string {
	return fmt.Sprintf("rotating:%s", w.filePath)
}

// MultiWriter fans log entries out to several writers
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a new multi writer
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write writes data to all writers
func (w *MultiWriter) Write(data []byte) error {
	var errs []error
	for _, writer := range w.writers {
		if err := writer.Write(data); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multi writer errors: %v", errs)
	}
	return nil
}

// Flush flushes all writers
func (w *MultiWriter) Flush() error {
	var errs []error
	for _, writer := range w.writers {
		if err := writer.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multi writer flush errors: %v", errs)
	}
	return nil
}

// Close closes all writers
func (w *MultiWriter) Close() error {
	var errs []error
	for _, writer := range w.writers {
		if err := writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multi writer close errors: %v", errs)
	}
	return nil
}

// GetName returns the name of the writer
func (w *MultiWriter) GetName() string {
	return "multi"
}

// NullWriter discards all log entries
type NullWriter struct{}

// NewNullWriter creates a new null writer
func NewNullWriter() *NullWriter {
	return &NullWriter{}
}

// Write discards the data
func (w *NullWriter) Write(data []byte) error { return nil }

// Flush does nothing
func (w *NullWriter) Flush() error { return nil }

// Close does nothing
func (w *NullWriter) Close() error { return nil }

// GetName returns the name of the writer
func (w *NullWriter) GetName() string { return "null" }
