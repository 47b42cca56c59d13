package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecInfoTable is the table that describes the program execution.
const ExecInfoTable = "exec_info"

// ExecInfo is a property of the program execution.
type ExecInfo struct {
	Property string
	Value    string
}

const timeFormat = "2006-01-02 15:04:05.000000000"

// execRecorder remembers how the program was started and writes it, with
// the end time, when the recorder is closed.
type execRecorder struct {
	recorder DataRecorder
	start    []ExecInfo
}

func startExecRecorder(recorder DataRecorder) *execRecorder {
	recorder.CreateTable(ExecInfoTable, ExecInfo{})

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "unknown: " + err.Error()
	}

	return &execRecorder{
		recorder: recorder,
		start: []ExecInfo{
			{"Start Time", time.Now().Format(timeFormat)},
			{"Command", strings.Join(os.Args, " ")},
			{"Working Directory", cwd},
		},
	}
}

func (e *execRecorder) End() {
	end := ExecInfo{"End Time", time.Now().Format(timeFormat)}

	for _, info := range append(e.start, end) {
		e.recorder.InsertData(ExecInfoTable, info)
	}
}
