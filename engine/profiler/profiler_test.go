package profiler

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
)

func TestTickLogsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { common.SetLogger(nil) })

	now := time.Unix(0, 0)
	p := NewProfiler(WithInterval(time.Second), WithClock(func() time.Time { return now }))

	for i := 0; i < 59; i++ {
		now = now.Add(16 * time.Millisecond)
		if p.Tick(Sample{DrawCalls: 2}) {
			t.Fatalf("logged early at frame %d", i)
		}
	}
	now = now.Add(100 * time.Millisecond)
	if !p.Tick(Sample{DrawCalls: 3, Triangles: 12}) {
		t.Fatal("expected a log line after the interval elapsed")
	}

	out := buf.String()
	if !strings.Contains(out, "frame profile") || !strings.Contains(out, "draw_calls=3") || !strings.Contains(out, "triangles=12") {
		t.Fatalf("unexpected log output: %s", out)
	}
	if p.Last().DrawCalls != 3 {
		t.Errorf("Last = %+v", p.Last())
	}
}
