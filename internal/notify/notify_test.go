package notify_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/dukerupert/pinfill/internal/notify"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	var r notify.Recorder

	_, ok := r.Last()
	assert.False(t, ok)

	r.Success("New Delhi, Delhi")
	r.Error("Invalid pincode format.")

	assert.Equal(t, []notify.Message{
		{Level: notify.LevelSuccess, Text: "New Delhi, Delhi"},
		{Level: notify.LevelError, Text: "Invalid pincode format."},
	}, r.Messages())

	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, notify.LevelError, last.Level)
}

func TestFunc(t *testing.T) {
	var got []notify.Message
	n := notify.Func(func(m notify.Message) { got = append(got, m) })

	n.Success("ok")
	n.Error("bad")

	assert.Equal(t, []notify.Message{{notify.LevelSuccess, "ok"}, {notify.LevelError, "bad"}}, got)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	n.Error("Pincode not found. Please check and try again.")

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), `message="Pincode not found. Please check and try again."`)
}
