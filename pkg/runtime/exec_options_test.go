package runtime

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/printscript-lang/printscript/pkg/evaluator"
)

func TestExecOptionsTraceOnlyWhenObserved(t *testing.T) {
	if New().execOptions("a.ps").Trace != nil {
		t.Error("default runtime should not install a trace hook")
	}

	warn := logrus.New()
	warn.SetOutput(io.Discard)
	warn.SetLevel(logrus.DebugLevel)
	if New(WithLogger(warn)).execOptions("a.ps").Trace != nil {
		t.Error("debug logging should not install a trace hook")
	}

	tracing := logrus.New()
	tracing.SetOutput(io.Discard)
	tracing.SetLevel(logrus.TraceLevel)
	if New(WithLogger(tracing)).execOptions("a.ps").Trace == nil {
		t.Error("trace logging needs the trace hook")
	}

	var events []evaluator.TraceEvent
	opts := New(WithTrace(func(ev evaluator.TraceEvent) { events = append(events, ev) })).execOptions("a.ps")
	if opts.Trace == nil {
		t.Fatal("a trace callback needs the trace hook")
	}
	opts.Trace(evaluator.TraceEvent{Event: evaluator.TracePrint})
	if len(events) != 1 || events[0].Event != evaluator.TracePrint {
		t.Errorf("callback got %v", events)
	}
}
