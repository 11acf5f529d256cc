package log

import (
	"io"
	"io/ioutil"
	"log"
	"os"
)

var (
	Trace   *log.Logger
	Info    *log.Logger
	Warning *log.Logger
	Error   *log.Logger
)

func init() {
	InitLog()
}

// InitLog sets up the package loggers. Trace output is only written when
// DOCVIEW_TRACE is set to 1.
func InitLog() {
	var traceHandle io.Writer = ioutil.Discard
	if os.Getenv("DOCVIEW_TRACE") == "1" {
		traceHandle = os.Stdout
	}

	Trace = log.New(traceHandle, "TRACE: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(os.Stdout, "", 0)
	Warning = log.New(os.Stdout, "WARNING: ", 0)
	Error = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}
