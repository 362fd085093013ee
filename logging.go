package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"time"
)

// AppLogger writes extended diagnostics to per-concern log files. Everything
// is off by default; the operational log stays on log.Printf.
type AppLogger struct {
	outputDir   string
	logRequests bool
	logDB       bool
	logWS       bool
	debug       bool

	requestLog *os.File
	dbLog      *os.File
	wsLog      *os.File

	mu           sync.Mutex
	requestCount int
	wsCount      int
}

var appLogger *AppLogger

// LogConfig holds the extended-logging switches.
type LogConfig struct {
	OutputDir   string
	LogRequests bool
	LogDB       bool
	LogWS       bool
	Debug       bool
}

// NewAppLogger opens the enabled log files under config.OutputDir. With no
// output dir the switches still control in-process debug output.
func NewAppLogger(config LogConfig) (*AppLogger, error) {
	al := &AppLogger{
		outputDir:   config.OutputDir,
		logRequests: config.LogRequests,
		logDB:       config.LogDB,
		logWS:       config.LogWS,
		debug:       config.Debug,
	}
	if al.outputDir == "" {
		return al, nil
	}

	open := func(name string) (*os.File, error) {
		return os.OpenFile(al.outputDir+"/"+name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	}
	var err error
	if al.logRequests {
		if al.requestLog, err = open("requests.log"); err != nil {
			return nil, fmt.Errorf("failed to open request log: %w", err)
		}
	}
	if al.logDB {
		if al.dbLog, err = open("database.log"); err != nil {
			return nil, fmt.Errorf("failed to open database log: %w", err)
		}
	}
	if al.logWS {
		if al.wsLog, err = open("websocket.log"); err != nil {
			return nil, fmt.Errorf("failed to open websocket log: %w", err)
		}
	}
	return al, nil
}

// Close closes all open log files.
func (al *AppLogger) Close() {
	for _, f := range []*os.File{al.requestLog, al.dbLog, al.wsLog} {
		if f != nil {
			f.Close()
		}
	}
}

// LogRequest records one HTTP exchange to the request log.
func (al *AppLogger) LogRequest(method, url string, reqBody []byte, status int, respBody []byte) {
	if !al.logRequests || al.requestLog == nil {
		return
	}
	al.mu.Lock()
	defer al.mu.Unlock()

	al.requestCount++
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\n========== REQUEST #%d [%s] ==========\n",
		al.requestCount, time.Now().Format("15:04:05.000"))
	fmt.Fprintf(&buf, "%s %s -> %d\n", method, url, status)
	if len(reqBody) > 0 {
		fmt.Fprintf(&buf, "--- request body ---\n%s\n", reqBody)
	}
	if len(respBody) > 0 {
		fmt.Fprintf(&buf, "--- response body ---\n")
		if len(respBody) > 5000 {
			buf.Write(respBody[:5000])
			fmt.Fprintf(&buf, "\n... (truncated, %d bytes total)\n", len(respBody))
		} else {
			buf.Write(respBody)
			buf.WriteString("\n")
		}
	}
	al.requestLog.Write(buf.Bytes())
}

// LogWebSocket records one WS message, either direction.
func (al *AppLogger) LogWebSocket(direction, who, message string) {
	if !al.logWS || al.wsLog == nil {
		return
	}
	al.mu.Lock()
	defer al.mu.Unlock()
	al.wsCount++
	fmt.Fprintf(al.wsLog, "[%s] #%d %s [%s]: %s\n",
		time.Now().Format("15:04:05.000"), al.wsCount, direction, who, message)
}

// LogDB dumps every user table to the database log.
func (al *AppLogger) LogDB(context string) {
	if !al.logDB || al.dbLog == nil || db == nil {
		return
	}
	al.mu.Lock()
	defer al.mu.Unlock()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\n========== DATABASE DUMP [%s] ==========\nContext: %s\n\n",
		time.Now().Format("15:04:05.000"), context)

	var tables []string
	if err := db.Select(&tables,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name"); err != nil {
		fmt.Fprintf(&buf, "error listing tables: %v\n", err)
		al.dbLog.Write(buf.Bytes())
		return
	}

	for _, table := range tables {
		fmt.Fprintf(&buf, "--- %s ---\n", table)
		rows, err := db.Queryx("SELECT rowid, * FROM " + table)
		if err != nil {
			fmt.Fprintf(&buf, "error: %v\n\n", err)
			continue
		}
		n := 0
		for rows.Next() {
			row, err := rows.SliceScan()
			if err != nil {
				continue
			}
			n++
			var parts []string
			for _, v := range row {
				switch val := v.(type) {
				case nil:
					parts = append(parts, "NULL")
				case []byte:
					parts = append(parts, string(val))
				default:
					parts = append(parts, fmt.Sprintf("%v", val))
				}
			}
			fmt.Fprintf(&buf, "%s\n", strings.Join(parts, " | "))
		}
		rows.Close()
		if n == 0 {
			buf.WriteString("(empty)\n")
		}
		buf.WriteString("\n")
	}
	al.dbLog.Write(buf.Bytes())
}

// Debug logs through the operational logger when the debug switch is on.
func (al *AppLogger) Debug(format string, args ...any) {
	if !al.debug {
		return
	}
	log.Printf("[DEBUG] "+format, args...)
}

// IsEnabled reports whether any extended logging is active.
func (al *AppLogger) IsEnabled() bool {
	return al.logRequests || al.logDB || al.logWS || al.debug
}

// LoggingHandler records request/response pairs around an http.Handler.
// WebSocket upgrades pass straight through: the recorder cannot hijack.
type LoggingHandler struct {
	Handler http.Handler
	Logger  *AppLogger
}

func (l *LoggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/ws" || strings.HasPrefix(r.URL.Path, "/static/") {
		l.Handler.ServeHTTP(w, r)
		return
	}

	var reqBody []byte
	if r.Body != nil {
		reqBody, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewBuffer(reqBody))
	}

	rec := httptest.NewRecorder()
	l.Handler.ServeHTTP(rec, r)

	for k, v := range rec.Header() {
		w.Header()[k] = v
	}
	w.WriteHeader(rec.Code)
	respBody := rec.Body.Bytes()
	w.Write(respBody)

	l.Logger.LogRequest(r.Method, r.URL.String(), reqBody, rec.Code, respBody)
}

// DebugLog logs a debug line through the global logger, tagged with the
// calling context.
func DebugLog(context, format string, args ...any) {
	if appLogger != nil {
		appLogger.Debug("["+context+"] "+format, args...)
	}
}

// LogWSMessage logs a WS message through the global logger.
func LogWSMessage(direction, who, message string) {
	if appLogger != nil {
		appLogger.LogWebSocket(direction, who, message)
	}
}

// LogDBState dumps the database through the global logger.
func LogDBState(context string) {
	if appLogger != nil {
		appLogger.LogDB(context)
	}
}

// CloseAppLogger closes the global logger's files.
func CloseAppLogger() {
	if appLogger != nil {
		appLogger.Close()
	}
}
