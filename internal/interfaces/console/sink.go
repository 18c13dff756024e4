package console

import (
	"fmt"
	"io"
	"os"
	"time"

	"oraclewatch/internal/application/port"
)

type Sink struct {
	out io.Writer
}

func NewSink() port.Sink { return &Sink{out: os.Stdout} }

func NewSinkTo(w io.Writer) port.Sink { return &Sink{out: w} }

// 每次刷新打印一行带时间戳的对比结果
func (s *Sink) WriteSnapshot(ts time.Time, line string) error {
	_, err := fmt.Fprintf(s.out, "%s %s\n", ts.Format("2006-01-02 15:04:05"), line)
	return err
}

func (s *Sink) NewLine() error {
	_, err := fmt.Fprint(s.out, "\n")
	return err
}
