package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsole(WithWriter(&buf), WithNoColor(true))

	logger.Log("req-1", PhaseMakeRequest, "encoding GET http://h/p")
	logger.Log("req-1", PhaseGetResponse, "success")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[req-1] MakeRequest encoding GET http://h/p", lines[0])
	assert.Equal(t, "[req-1] GetResponse success", lines[1])
}

func TestConsole_Timestamps(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsole(WithWriter(&buf), WithNoColor(true), WithTimestamps(true))
	logger.now = func() time.Time {
		return time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	}

	logger.Log("r", PhaseSendRequest, "sent")
	assert.Equal(t, "03:04:05.006 [r] SendRequest sent\n", buf.String())
}

func TestConsole_ConcurrentLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsole(WithWriter(&buf), WithNoColor(true))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log("r", PhaseSendRequest, "x")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, strings.Count(buf.String(), "\n"))
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	m.Log("a", PhaseMakeRequest, "one")
	m.Log("a", PhaseSendRequest, "two")

	assert.Equal(t, []Phase{PhaseMakeRequest, PhaseSendRequest}, m.Phases())
	assert.Equal(t, Entry{RequestID: "a", Phase: PhaseSendRequest, Message: "two"}, m.Entries()[1])
}

func TestFuncAndNop(t *testing.T) {
	var got []string
	var logger Logger = Func(func(id string, p Phase, msg string) {
		got = append(got, id+":"+p.String()+":"+msg)
	})
	logger.Log("1", PhaseGetResponse, "done")
	assert.Equal(t, []string{"1:GetResponse:done"}, got)

	assert.NotPanics(t, func() { Nop().Log("", PhaseMakeRequest, "") })
}
