// Package log fornece logging estruturado (nível, categoria, campos chave=valor)
// para o registrar.
//
// O logger é global e fica desligado até Init ser chamado, de modo que testes
// e bibliotecas não escrevem nada por padrão.
package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Level representa a severidade do log.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converte "debug", "info", "warn" ou "error" (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Category agrupa mensagens relacionadas.
type Category string

const (
	CatDispatch  Category = "dispatch"  // admissão e envio de submissões
	CatQuota     Category = "quota"     // janela, reset e backends de quota
	CatRetry     Category = "retry"     // fila de retentativas
	CatTransport Category = "transport" // chamadas HTTP ao registry
	CatStats     Category = "stats"
	CatConfig    Category = "config"
	CatHTTP      Category = "http" // intake HTTP
)

// Logger escreve uma linha por entrada no writer configurado.
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	enabled  bool
	minLevel Level
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// Init configura o logger global. Pode ser chamado de novo (ex.: testes).
func Init(w io.Writer, minLevel Level) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = &Logger{writer: w, enabled: w != nil, minLevel: minLevel}
}

// Disable desliga o logger global.
func Disable() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = nil
}

func Debug(cat Category, msg string, fields ...any) {
	log(LevelDebug, cat, msg, fields...)
}

func Info(cat Category, msg string, fields ...any) {
	log(LevelInfo, cat, msg, fields...)
}

func Warn(cat Category, msg string, fields ...any) {
	log(LevelWarn, cat, msg, fields...)
}

func Error(cat Category, msg string, fields ...any) {
	log(LevelError, cat, msg, fields...)
}

// ErrorErr loga em nível error anexando o campo "error".
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	log(LevelError, cat, msg, fields...)
}

func log(level Level, cat Category, msg string, fields ...any) {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || level < l.minLevel {
		return
	}

	// Formato: 2026-10-19T10:45:00 [INFO] [dispatch] message key=value key2=value2
	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, " [%s] [%s] %s", level, cat, msg)

	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", fields[len(fields)-1])
	}
	b.WriteByte('\n')

	_, _ = io.WriteString(l.writer, b.String())
}
