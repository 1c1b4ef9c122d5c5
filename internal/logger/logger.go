// Package logger пишет логи с префиксом сервиса через буферизированный канал,
// чтобы обработчики запросов не ждали записи в stdout.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

const asyncBufferSize = 8192

const fatalFlushTimeout = 2 * time.Second

// slowThreshold — при LOG_LEVEL=info LogDuration пишет только вызовы дольше этого порога.
const slowThreshold = 100 * time.Millisecond

type level int

const (
	levelDebug level = iota
	levelInfo
)

var (
	mu       sync.RWMutex
	prefix   string
	logLevel = levelInfo
	out      = log.New(os.Stderr, "", log.LstdFlags)

	ch   chan entry
	once sync.Once

	// exit подменяется в тестах Fatalf.
	exit = os.Exit
)

// entry — строка лога либо, если done != nil, метка Flush.
type entry struct {
	msg  string
	done chan struct{}
}

func parseLevel(s string) level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return levelDebug
	default:
		return levelInfo
	}
}

func initWorker() {
	mu.Lock()
	logLevel = parseLevel(os.Getenv("LOG_LEVEL"))
	mu.Unlock()
	ch = make(chan entry, asyncBufferSize)
	go func() {
		for e := range ch {
			if e.done != nil {
				close(e.done)
				continue
			}
			mu.RLock()
			l := out
			mu.RUnlock()
			l.Print(e.msg)
		}
	}()
}

func enqueue(msg string) {
	once.Do(initWorker)
	select {
	case ch <- entry{msg: msg}:
	default:
		// буфер полон: запись теряется, запрос не блокируется
	}
}

// Flush ждёт, пока воркер запишет всё, что уже стоит в очереди. false — не успел за timeout.
func Flush(timeout time.Duration) bool {
	once.Do(initWorker)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	done := make(chan struct{})
	select {
	case ch <- entry{done: done}:
	case <-timer.C:
		return false
	}
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// Fatalf пишет сообщение, дожидается записи очереди и завершает процесс с кодом 1.
func Fatalf(format string, v ...any) {
	once.Do(initWorker)
	msg := tag() + "FATAL: " + fmt.Sprintf(format, v...)
	timer := time.NewTimer(fatalFlushTimeout)
	select {
	case ch <- entry{msg: msg}:
		timer.Stop()
		Flush(fatalFlushTimeout)
	case <-timer.C:
		// очередь забита: пишем напрямую
		mu.RLock()
		l := out
		mu.RUnlock()
		l.Print(msg)
	}
	exit(1)
}

// SetPrefix задаёт префикс для всех последующих логов (например "auth").
func SetPrefix(p string) {
	mu.Lock()
	prefix = p
	mu.Unlock()
}

// SetLevel переопределяет уровень, прочитанный из LOG_LEVEL (значение берётся из конфига).
func SetLevel(s string) {
	once.Do(initWorker)
	mu.Lock()
	logLevel = parseLevel(s)
	mu.Unlock()
}

// SetOutput перенаправляет вывод (используется в тестах).
func SetOutput(w io.Writer) {
	mu.Lock()
	out = log.New(w, "", 0)
	mu.Unlock()
}

func tag() string {
	mu.RLock()
	defer mu.RUnlock()
	if prefix == "" {
		return ""
	}
	return "[" + prefix + "] "
}

func debugEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel == levelDebug
}

func Info(v ...any) {
	enqueue(tag() + fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	enqueue(tag() + fmt.Sprintf(format, v...))
}

// Debugf пишет только при LOG_LEVEL=debug.
func Debugf(format string, v ...any) {
	once.Do(initWorker)
	if !debugEnabled() {
		return
	}
	enqueue(tag() + "DEBUG: " + fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	enqueue(tag() + "WARN: " + fmt.Sprintf(format, v...))
}

func Error(v ...any) {
	enqueue(tag() + "ERROR: " + fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	enqueue(tag() + "ERROR: " + fmt.Sprintf(format, v...))
}

// LogDuration логирует имя функции и время выполнения в миллисекундах.
// При LOG_LEVEL=info пишутся только вызовы дольше 100ms, при debug — все.
func LogDuration(fn string, start time.Time) {
	once.Do(initWorker)
	elapsed := time.Since(start)
	if debugEnabled() || elapsed >= slowThreshold {
		enqueue(fmt.Sprintf("%sfn=%s duration_ms=%d", tag(), fn, elapsed.Milliseconds()))
	}
}

// DeferLogDuration: defer logger.DeferLogDuration("session.Touch", time.Now())().
func DeferLogDuration(fn string, start time.Time) func() {
	return func() { LogDuration(fn, start) }
}
