package log

// Application logging on top of zap
// Console logger prints human-readable lines (SUCCESS/ERROR with ✓ / ✗)
// File logger (optional) writes every level to <dir>/app.log
// Setup is called once by the root command; before that only the console is used

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger
var consoleLogger *zap.Logger // user-facing lines on stderr
var fileLogger *zap.Logger    // structured lines in app.log

var setupMu sync.Mutex

func init() {
	consoleLogger = buildConsoleLogger(zapcore.InfoLevel)
	fileLogger = zap.NewNop()
	Logger = consoleLogger
}

// Setup configures the console level and, when dir is not empty, the file logger.
// Safe to call more than once; the last call wins.
func Setup(dir string, level string) error {
	setupMu.Lock()
	defer setupMu.Unlock()

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	consoleLogger = buildConsoleLogger(lvl)

	if dir == "" {
		fileLogger = zap.NewNop()
		Logger = consoleLogger
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	fileConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	fileEncoder := &lineEncoder{Encoder: zapcore.NewConsoleEncoder(fileConfig)}
	fileCore := zapcore.NewCore(
		fileEncoder,
		getLogFileWriter(filepath.Join(dir, "app.log")),
		zapcore.DebugLevel,
	)
	fileLogger = zap.New(fileCore)

	// Debug/info/warn go to the file only, the console gets the curated lines
	Logger = fileLogger
	return nil
}

func buildConsoleLogger(level zapcore.Level) *zap.Logger {
	consoleConfig := zap.NewDevelopmentConfig()
	consoleConfig.EncoderConfig.EncodeLevel = levelEncoder
	consoleConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleConfig.EncoderConfig.EncodeCaller = nil
	consoleConfig.Development = false
	consoleConfig.DisableStacktrace = true
	consoleConfig.Level = zap.NewAtomicLevelAt(level)

	l, err := consoleConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build console logger: %v\n", err)
		return zap.NewNop()
	}
	return l
}

// Sync flushes both loggers.
func Sync() {
	_ = fileLogger.Sync()
	_ = consoleLogger.Sync()
}

// GenerateRequestID returns a short random id used to correlate request and response lines
func GenerateRequestID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// LogRequest writes an outgoing HTTP request line
func LogRequest(requestID, method, endpoint string, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("endpoint", endpoint),
	}, fields...)
	Logger.Debug("HTTP request", allFields...)
}

// LogResponse writes an HTTP response line; non-2xx responses also reach the console
func LogResponse(requestID string, statusCode int, durationMs int64, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("request_id", requestID),
		zap.Int("status_code", statusCode),
		zap.Int64("duration_ms", durationMs),
	}, fields...)

	if statusCode >= 200 && statusCode < 300 {
		Logger.Debug("HTTP response", allFields...)
		return
	}

	if Logger != consoleLogger {
		Logger.Error("HTTP response", allFields...)
	}
	if endpoint := fieldString(fields, "endpoint"); endpoint != "" {
		consoleLogger.Error(fmt.Sprintf("✗ HTTP request failed [%d] %s", statusCode, endpoint))
	} else {
		consoleLogger.Error(fmt.Sprintf("✗ HTTP request failed [%d]", statusCode))
	}
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

func levelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString(colorCyan + "DEBUG" + colorReset)
	case zapcore.InfoLevel:
		enc.AppendString(colorGreen + "INFO" + colorReset)
	case zapcore.WarnLevel:
		enc.AppendString(colorYellow + "WARN" + colorReset)
	case zapcore.ErrorLevel:
		enc.AppendString(colorRed + "ERROR" + colorReset)
	case zapcore.FatalLevel:
		enc.AppendString(colorRed + "FATAL" + colorReset)
	default:
		enc.AppendString(colorWhite + level.String() + colorReset)
	}
}

// LogInfo writes an info line (file when configured, console otherwise)
func LogInfo(message string, fields ...zap.Field) {
	Logger.Info(message, fields...)
}

// LogSuccess writes to the file and prints a ✓ line on the console
func LogSuccess(message string, fields ...zap.Field) {
	durationMs := extractDuration(fields)

	if Logger != consoleLogger {
		Logger.Info(message, fields...)
	}

	if durationMs > 0 {
		consoleLogger.Info(fmt.Sprintf("✓ %s (%dms)", message, durationMs), fields...)
	} else {
		consoleLogger.Info("✓ "+message, fields...)
	}
}

// LogError writes to the file and prints a ✗ line on the console
func LogError(message string, fields ...zap.Field) {
	durationMs := extractDuration(fields)

	if Logger != consoleLogger {
		Logger.Error(message, fields...)
	}

	if durationMs > 0 {
		consoleLogger.Error(fmt.Sprintf("✗ %s (%dms)", message, durationMs), fields...)
	} else {
		consoleLogger.Error("✗ "+message, fields...)
	}
}

// LogWarn writes a warning; warnings are also shown on the console
func LogWarn(message string, fields ...zap.Field) {
	if Logger != consoleLogger {
		Logger.Warn(message, fields...)
	}
	consoleLogger.Warn(message, fields...)
}

// LogDebug writes a debug line
func LogDebug(message string, fields ...zap.Field) {
	Logger.Debug(message, fields...)
}

// LogJSON pretty-prints a JSON payload at debug level
func LogJSON(data []byte, label string) {
	var pretty interface{}
	if err := json.Unmarshal(data, &pretty); err != nil {
		Logger.Debug(label, zap.String("response", string(data)))
		return
	}
	formatted, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		Logger.Debug(label, zap.String("response", string(data)))
		return
	}
	Logger.Debug(label)
	Logger.Sugar().Debugf("\n%s\n", string(formatted))
}

func extractDuration(fields []zap.Field) int64 {
	for _, field := range fields {
		if field.Key == "duration_ms" && field.Type == zapcore.Int64Type {
			return field.Integer
		}
	}
	return 0
}

func fieldString(fields []zap.Field, key string) string {
	for _, field := range fields {
		if field.Key == key && field.Type == zapcore.StringType {
			return field.String
		}
	}
	return ""
}

const (
	// MaxLogFileSize - app.log is truncated once it grows past this size
	MaxLogFileSize = 20 * 1024 * 1024
)

type truncatingWriter struct {
	file *os.File
	path string
	mu   sync.Mutex
}

func (w *truncatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.file.Stat()
	if err == nil && info.Size() > MaxLogFileSize {
		w.file.Close()
		w.file, err = os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return 0, fmt.Errorf("failed to truncate log file: %w", err)
		}
	}

	return w.file.Write(p)
}

func (w *truncatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

func getLogFileWriter(path string) zapcore.WriteSyncer {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v, falling back to stderr\n", path, err)
		return zapcore.AddSync(os.Stderr)
	}
	return &truncatingWriter{file: file, path: path}
}

// lineEncoder writes "<time>     <LEVEL> <msg>\t{json fields}"
type lineEncoder struct {
	zapcore.Encoder
}

func (e *lineEncoder) Clone() zapcore.Encoder {
	return &lineEncoder{Encoder: e.Encoder.Clone()}
}

func (e *lineEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := buffer.NewPool().Get()

	buf.AppendString(entry.Time.Format("2006-01-02 15:04:05"))
	buf.AppendString("     ")
	buf.AppendString(entry.Level.CapitalString())
	buf.AppendString(" ")
	buf.AppendString(entry.Message)

	if len(fields) > 0 {
		// MapObjectEncoder knows every zap field type, including arrays and durations
		enc := zapcore.NewMapObjectEncoder()
		for _, field := range fields {
			field.AddTo(enc)
		}
		if jsonData, err := json.Marshal(enc.Fields); err == nil {
			buf.AppendString("\t")
			buf.AppendString(string(jsonData))
		}
	}

	buf.AppendString("\n")
	return buf, nil
}
