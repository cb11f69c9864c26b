package server

import (
	"fmt"
	"io"
	"strings"

	"github.com/renatolabs/reqfifo/internal/proto"
	"github.com/renatolabs/reqfifo/internal/queue"
)

// logger emits the exact log line forms this server's operators and test
// harnesses depend on. It is kept deliberately line-oriented rather than
// routed through a structured k/v logging library: callers assert on
// these literal strings, and a structured logger's default rendering
// would not preserve that exact form.
type logger struct {
	out io.Writer
}

func newLogger(out io.Writer) *logger {
	if out == nil {
		out = io.Discard
	}
	return &logger{out: out}
}

func (l *logger) workerAlive(now proto.Timespec) {
	fmt.Fprintf(l.out, "[#WORKER#] %s Worker Thread Alive!\n", now.String())
}

func (l *logger) completion(m queue.RequestMetadata) {
	fmt.Fprintf(l.out, "R%d:%s,%s,%s,%s,%s\n",
		m.Request.ReqID,
		m.Request.Timestamp.String(),
		m.Request.Length.String(),
		m.Receipt.String(),
		m.Start.String(),
		m.Complete.String(),
	)
}

func (l *logger) reject(m queue.RequestMetadata) {
	fmt.Fprintf(l.out, "X%d:%s,%s,%s\n",
		m.Request.ReqID,
		m.Request.Timestamp.String(),
		m.Request.Length.String(),
		m.Reject.String(),
	)
}

func (l *logger) snapshot(ids []uint64) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("R%d", id)
	}
	fmt.Fprintf(l.out, "Q:[%s]\n", strings.Join(parts, ","))
}

func (l *logger) info(msg string) {
	fmt.Fprintln(l.out, msg)
}
