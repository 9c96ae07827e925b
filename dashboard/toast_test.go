package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	d       time.Duration
	fire    func()
	stopped bool
}

func newFakeToast() (*Toast, *[]*fakeTimer) {
	timers := &[]*fakeTimer{}
	t := NewToast(ToastDuration)
	t.after = func(d time.Duration, f func()) func() bool {
		ft := &fakeTimer{d: d, fire: f}
		*timers = append(*timers, ft)
		return func() bool {
			ft.stopped = true
			return true
		}
	}
	return t, timers
}

func TestToast_HidesAfterDuration(t *testing.T) {
	toast, timers := newFakeToast()

	_, visible := toast.Current()
	assert.False(t, visible)

	toast.Show(MsgShared)
	msg, visible := toast.Current()
	assert.True(t, visible)
	assert.Equal(t, MsgShared, msg)

	require.Len(t, *timers, 1)
	assert.Equal(t, 1600*time.Millisecond, (*timers)[0].d)
	(*timers)[0].fire()

	_, visible = toast.Current()
	assert.False(t, visible)
}

func TestToast_NewMessageReplacesTimer(t *testing.T) {
	toast, timers := newFakeToast()

	toast.Show("uno")
	toast.Show("dos")
	require.Len(t, *timers, 2)
	assert.True(t, (*timers)[0].stopped)

	// The first timer firing late must not hide the second message.
	(*timers)[0].fire()
	msg, visible := toast.Current()
	assert.True(t, visible)
	assert.Equal(t, "dos", msg)

	(*timers)[1].fire()
	_, visible = toast.Current()
	assert.False(t, visible)
}

func TestToast_RealTimer(t *testing.T) {
	toast := NewToast(10 * time.Millisecond)
	toast.Show("hola")
	assert.Eventually(t, func() bool {
		_, visible := toast.Current()
		return !visible
	}, time.Second, 5*time.Millisecond)
}
