package queue

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2025, 6, 2, 17, 30, 0, 0, time.UTC)

func TestFormatLine(t *testing.T) {
	tests := []struct {
		name string
		ev   ActivityEvent
		want string
	}{
		{
			"checkout",
			ActivityEvent{Type: EventCheckOut, EmployeeID: "E1", Status: "checked-out", TotalMinutes: 90.5, At: at},
			"[2025-06-02T17:30:00Z] attendance.checked_out | employee_id=E1 | status=checked-out | minutes=90.50\n",
		},
		{
			"ticket",
			ActivityEvent{Type: EventTicketDeleted, UserID: "u1", TicketID: "t1", At: at},
			"[2025-06-02T17:30:00Z] ticket.deleted | user_id=u1 | ticket_id=t1\n",
		},
		{
			"bare",
			ActivityEvent{Type: EventUserCreated, At: at.In(time.FixedZone("X", 3600))},
			"[2025-06-02T17:30:00Z] user.created\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLine(tt.ev))
		})
	}
}

func TestHandleAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	c := &Consumer{LogDir: dir}

	require.NoError(t, c.Handle([]byte(`{"type":"attendance.checked_in","employee_id":"E1","at":"2025-06-02T09:00:00Z"}`)))
	require.NoError(t, c.Handle([]byte(`{"type":"ticket.created","user_id":"u1","ticket_id":"t1","at":"2025-06-02T09:05:00Z"}`)))

	b, err := os.ReadFile(filepath.Join(dir, ActivityLogFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[2025-06-02T09:00:00Z] attendance.checked_in | employee_id=E1", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[2025-06-02T09:05:00Z] ticket.created"))
}

func TestHandleRejectsBadMessages(t *testing.T) {
	c := &Consumer{LogDir: t.TempDir()}
	assert.Error(t, c.Handle([]byte(`not json`)))
	assert.Error(t, c.Handle([]byte(`{"employee_id":"E1"}`)))

	_, err := os.Stat(filepath.Join(c.LogDir, ActivityLogFile))
	assert.True(t, os.IsNotExist(err))
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
	assert.True(t, sleep(context.Background(), time.Millisecond))
}
