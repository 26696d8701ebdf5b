package storefront

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/genie/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_EmptyMessageSendsNothing(t *testing.T) {
	app, sf, _ := newTestApp(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := app.Chat.Send(context.Background(), text)
		var verr *internal.ValidationError
		assert.ErrorAs(t, err, &verr)
	}

	assert.Zero(t, sf.Calls("/api/chatbot"))
	assert.Empty(t, app.Document.Snapshot().Turns)
	assert.Empty(t, app.Chat.Session().Turns)
}

func TestChat_ReplyIsRenderedAndSpokenOnce(t *testing.T) {
	synth := newFakeSynth(false)
	app, sf, _ := newTestApp(t, WithSpeech(nil, synth))
	sf.OnChat(func(message string) (int, string) {
		return http.StatusOK, `{"reply": "hi"}`
	})

	turn, err := app.Chat.Send(context.Background(), "  hello ")
	require.NoError(t, err)
	assert.Equal(t, "hi", turn.Text)
	assert.Equal(t, internal.TurnComplete, turn.Status)

	view := app.Document.Snapshot()
	require.Len(t, view.Turns, 2)
	assert.Equal(t, internal.RoleUser, view.Turns[0].Role)
	assert.Equal(t, "hello", view.Turns[0].Text)
	assert.Equal(t, "hi", view.Turns[1].Text)
	assert.False(t, view.ChatBusy)
	assert.True(t, view.Follow)
	assert.Empty(t, view.ChatInput)

	require.Eventually(t, func() bool { return len(synth.Spoken()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, app.Close())
	assert.Equal(t, []string{"hi"}, synth.Spoken())
}

func TestChat_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		text   string
		turn   internal.TurnStatus
		err    bool
	}{
		{name: "empty reply", status: http.StatusOK, body: `{"reply": ""}`, text: "Hmm... no reply 🤔", turn: internal.TurnFailed},
		{name: "missing reply", status: http.StatusOK, body: `{}`, text: "Hmm... no reply 🤔", turn: internal.TurnFailed},
		{name: "reply on error status", status: http.StatusUnauthorized, body: `{"reply": "Please login first!"}`, text: "Please login first!", turn: internal.TurnComplete},
		{name: "not json", status: http.StatusInternalServerError, body: `Internal Server Error`, text: "Magic lamp flickering... Try again ✨", turn: internal.TurnFailed, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := newFakeSynth(false)
			app, sf, _ := newTestApp(t, WithSpeech(nil, synth))
			sf.Respond("/api/chatbot", tt.status, tt.body)

			turn, err := app.Chat.Send(context.Background(), "hello")
			if tt.err {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.text, turn.Text)
			assert.Equal(t, tt.turn, turn.Status)

			view := app.Document.Snapshot()
			require.Len(t, view.Turns, 2)
			assert.Equal(t, tt.text, view.Turns[1].Text)
			assert.False(t, view.ChatBusy)
			assert.False(t, app.Chat.Busy())

			require.NoError(t, app.Close())
			if tt.turn == internal.TurnFailed {
				assert.Empty(t, synth.Spoken())
			}
		})
	}
}

func TestChat_CancelSettlesPlaceholder(t *testing.T) {
	app, sf, _ := newTestApp(t)
	release := sf.Hold("/api/chatbot")
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan internal.ChatTurn, 1)
	go func() {
		turn, _ := app.Chat.Send(ctx, "hello")
		done <- turn
	}()

	require.Eventually(t, app.Chat.Busy, time.Second, 5*time.Millisecond)
	view := app.Document.Snapshot()
	require.Len(t, view.Turns, 2)
	assert.Equal(t, "Genie thinking... 🧞‍♂️", view.Turns[1].Text)
	assert.Equal(t, internal.TurnPending, view.Turns[1].Status)
	assert.True(t, view.ChatBusy)

	cancel()
	select {
	case turn := <-done:
		assert.Equal(t, internal.TurnFailed, turn.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("send did not settle after cancel")
	}

	_, pending := app.Chat.Session().Pending()
	assert.False(t, pending)
	assert.Equal(t, internal.TurnFailed, app.Document.Snapshot().Turns[1].Status)
}

func TestChat_ConcurrentSendRejected(t *testing.T) {
	app, sf, _ := newTestApp(t)
	release := sf.Hold("/api/chatbot")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := app.Chat.Send(context.Background(), "first")
		assert.NoError(t, err)
	}()
	require.Eventually(t, app.Chat.Busy, time.Second, 5*time.Millisecond)

	_, err := app.Chat.Send(context.Background(), "second")
	assert.ErrorIs(t, err, internal.ErrTurnPending)
	assert.Equal(t, "Genie is still thinking... ⏳", lastToast(t, app))

	release()
	wg.Wait()

	assert.Equal(t, 1, sf.Calls("/api/chatbot"))
	turns := app.Chat.Session().Turns
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Text)
}

func TestChat_TurnsAreRecorded(t *testing.T) {
	app, _, _ := newTestApp(t)
	rec := &fakeRecorder{}
	app.Chat.SetRecorder(rec)

	settled, err := app.Chat.Send(context.Background(), "hello")
	require.NoError(t, err)

	turns := rec.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, internal.RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Text)
	assert.Equal(t, settled, turns[1])
	assert.Equal(t, internal.TurnComplete, turns[1].Status)
}

func TestChat_SessionIsCopy(t *testing.T) {
	app, _, _ := newTestApp(t)
	_, err := app.Chat.Send(context.Background(), "hello")
	require.NoError(t, err)

	s := app.Chat.Session()
	s.Turns[0].Text = "changed"
	assert.Equal(t, "hello", app.Chat.Session().Turns[0].Text)
}
