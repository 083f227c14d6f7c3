package obs

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestRequestID_DefaultsToDash(t *testing.T) {
	if got := RequestID(context.Background()); got != "-" {
		t.Fatalf("expected -, got %q", got)
	}
	if got := RequestID(WithRequestID(context.Background(), "abc")); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
}

func TestTime_LogsOpAndError(t *testing.T) {
	buf := captureLog(t)
	ctx := WithRequestID(context.Background(), "r1")

	func() (err error) {
		defer Time(ctx, "redis.Nearby")(&err)
		return errors.New("boom")
	}()

	line := buf.String()
	for _, want := range []string{"req_id=r1", "op=redis.Nearby", "err=boom"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestTime_NoErrorField(t *testing.T) {
	buf := captureLog(t)

	func() (err error) {
		defer Time(context.Background(), "ors.Route")(&err)
		return nil
	}()

	if strings.Contains(buf.String(), "err=") {
		t.Fatalf("unexpected err field in %q", buf.String())
	}
}
