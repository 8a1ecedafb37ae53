package prince

// Notes:
// - LogSink is only checked for not panicking with a nop logger; the level
//   mapping is covered by the bolt handler in internal/logging tests.

import (
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/alnah/go-prince/internal/logging"
)

// ---------------------------------------------------------------------------
// TestReadMessages - Structured log parsing
// ---------------------------------------------------------------------------

func TestReadMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		log      string
		wantOK   bool
		wantMsgs []recordedMessage
		wantData [][2]string
	}{
		{
			name:   "success with messages",
			log:    "msg|wrn|style.css|unknown property\nmsg|inf||loaded\nfin|success\n",
			wantOK: true,
			wantMsgs: []recordedMessage{
				{KindWarning, "style.css", "unknown property"},
				{KindInfo, "", "loaded"},
			},
		},
		{
			name:     "failure",
			log:      "msg|err|doc.html|parse error\nfin|failure\n",
			wantMsgs: []recordedMessage{{KindError, "doc.html", "parse error"}},
		},
		{
			name:   "text may contain separators",
			log:    "msg|out||a|b|c\nfin|success\n",
			wantOK: true,
			wantMsgs: []recordedMessage{
				{KindOutput, "", "a|b|c"},
			},
		},
		{
			name:     "data messages",
			log:      "dat|pages|12\ndat|empty|\nfin|success\n",
			wantOK:   true,
			wantData: [][2]string{{"pages", "12"}, {"empty", ""}},
		},
		{
			name:   "malformed lines dropped",
			log:    "msg|wrn|only-two\nmsg|xyz|loc|unknown kind\ndat|noseparator\nfin|success\n",
			wantOK: true,
		},
		{
			name:   "free-form lines",
			log:    "prince: warning: no fonts\nprince: error: license\nplain output\n",
			wantOK: false,
			wantMsgs: []recordedMessage{
				{KindWarning, "", "no fonts"},
				{KindError, "", "license"},
				{KindDebug, "", "plain output"},
			},
		},
		{
			name:     "unknown tag is free-form",
			log:      "xyz|something\nfin|success\n",
			wantOK:   true,
			wantMsgs: []recordedMessage{{KindDebug, "", "xyz|something"}},
		},
		{
			name:   "last fin wins",
			log:    "fin|success\nfin|failure\n",
			wantOK: false,
		},
		{
			name:   "crlf and missing final newline",
			log:    "msg|dbg|a|b\r\nfin|success",
			wantOK: true,
			wantMsgs: []recordedMessage{
				{KindDebug, "a", "b"},
			},
		},
		{
			name:   "empty log is a failure",
			log:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{}
			ok, err := ReadMessages(strings.NewReader(tt.log), rec)
			if err != nil {
				t.Fatalf("ReadMessages() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("ReadMessages() ok = %v, want %v", ok, tt.wantOK)
			}
			if got := rec.snapshot(); !slices.Equal(got, tt.wantMsgs) {
				t.Errorf("messages = %v, want %v", got, tt.wantMsgs)
			}
			if !slices.Equal(rec.data, tt.wantData) {
				t.Errorf("data = %v, want %v", rec.data, tt.wantData)
			}
		})
	}
}

func TestReadMessages_NilSink(t *testing.T) {
	t.Parallel()

	ok, err := ReadMessages(strings.NewReader("msg|wrn||x\nfin|success\n"), nil)
	if err != nil || !ok {
		t.Errorf("ReadMessages(nil sink) = %v, %v; want true, nil", ok, err)
	}
}

func TestReadMessages_ReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("pipe broken")
	r := io.MultiReader(strings.NewReader("fin|success\n"), iotest.ErrReader(boom))

	ok, err := ReadMessages(r, nil)
	if !errors.Is(err, boom) {
		t.Errorf("ReadMessages() error = %v, want %v", err, boom)
	}
	if ok {
		t.Error("ReadMessages() ok = true on read error")
	}
}

// ---------------------------------------------------------------------------
// TestEventSinks - Adapters
// ---------------------------------------------------------------------------

func TestEventFuncs(t *testing.T) {
	t.Parallel()

	var kinds []MessageKind
	var names []string
	sink := EventFuncs{
		Message: func(kind MessageKind, _, _ string) { kinds = append(kinds, kind) },
		Data:    func(name, _ string) { names = append(names, name) },
	}
	sink.OnMessage(KindWarning, "", "x")
	sink.OnDataMessage("n", "v")

	if !slices.Equal(kinds, []MessageKind{KindWarning}) || !slices.Equal(names, []string{"n"}) {
		t.Errorf("kinds = %v, names = %v", kinds, names)
	}

	// Nil fields are skipped.
	EventFuncs{}.OnMessage(KindError, "", "x")
	EventFuncs{}.OnDataMessage("n", "v")
}

func TestTee(t *testing.T) {
	t.Parallel()

	a, b := &recorder{}, &recorder{}
	sink := tee(a, nil, b, LogSink(logging.Nop()))
	sink.OnMessage(KindInfo, "loc", "text")
	sink.OnDataMessage("k", "v")

	for i, r := range []*recorder{a, b} {
		if len(r.snapshot()) != 1 || len(r.data) != 1 {
			t.Errorf("sink %d got %d messages and %d data", i, len(r.snapshot()), len(r.data))
		}
	}
	if len(tee(nil, nil).(teeSink)) != 0 {
		t.Error("tee of nil sinks should be empty")
	}
}

func TestLogSink_AllKinds(t *testing.T) {
	t.Parallel()

	sink := LogSink(logging.Nop())
	for _, k := range []MessageKind{KindError, KindWarning, KindInfo, KindDebug, KindOutput, "???"} {
		sink.OnMessage(k, "loc", "text")
	}
	sink.OnDataMessage("name", "value")
}
