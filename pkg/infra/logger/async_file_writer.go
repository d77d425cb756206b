package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const flushInterval = 2 * time.Second

// AsyncFileWriter buffers log lines on a channel and writes them from one
// goroutine. Writes never block; lines are dropped when the channel is full.
type AsyncFileWriter struct {
	writer  *bufio.Writer
	file    *os.File
	logChan chan []byte
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func NewAsyncFileWriter(logFile string, bufferSize int) (*AsyncFileWriter, error) {
	safeLogFile := filepath.Clean(logFile)
	file, err := os.OpenFile(safeLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	aw := &AsyncFileWriter{
		writer:  bufio.NewWriterSize(file, bufferSize),
		file:    file,
		logChan: make(chan []byte, 1000),
		done:    make(chan struct{}),
	}

	aw.wg.Add(1)
	go aw.processLogs()

	return aw, nil
}

func (aw *AsyncFileWriter) Write(p []byte) (n int, err error) {
	select {
	case aw.logChan <- append([]byte{}, p...):
	default:
	}
	return len(p), nil
}

func (aw *AsyncFileWriter) processLogs() {
	defer aw.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case logData := <-aw.logChan:
			if _, err := aw.writer.Write(logData); err != nil {
				fmt.Fprintln(os.Stderr, "error writing log data to file", err)
			}

		case <-ticker.C:
			_ = aw.writer.Flush()

		case <-aw.done:
			for len(aw.logChan) > 0 {
				_, _ = aw.writer.Write(<-aw.logChan)
			}
			_ = aw.writer.Flush()
			return
		}
	}
}

// Close flushes pending lines and closes the file.
func (aw *AsyncFileWriter) Close() {
	aw.once.Do(func() {
		close(aw.done)
		aw.wg.Wait()
		_ = aw.file.Close()
	})
}
