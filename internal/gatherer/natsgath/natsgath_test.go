package natsgath

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/programme-lv/grader/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(subj string, data []byte) error {
	f.msgs = append(f.msgs, published{subject: subj, data: data})
	return f.err
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestTrimStrToRect(t *testing.T) {
	assert.Equal(t, "", trimStrToRect("", 2, 3))
	assert.Equal(t, "ab\ncd", trimStrToRect("ab\ncd", 2, 3))
	assert.Equal(t, "abc[...]\nd", trimStrToRect("abcdef\nd", 2, 3))
	assert.Equal(t, "a\nb\n[...]", trimStrToRect("a\nb\nc\nd", 2, 3))
}

func TestGatherer_PublishesEventsToEvalSubject(t *testing.T) {
	pub := &fakePublisher{}
	g := New(pub, "grader.events", "uuid-1", discard)

	g.StartJob("python3", 1)
	g.FinishSample("1 2", "3")
	g.ReachTest(1, "", "8")
	g.FinishTest(api.TestOutcome{ID: 1, ActualOutput: strings.Repeat("x", 100), Passed: false})
	g.FinishJob(false)

	require.Len(t, pub.msgs, 5)
	types := make([]api.MsgType, 0, len(pub.msgs))
	for _, m := range pub.msgs {
		assert.Equal(t, "grader.events.uuid-1", m.subject)
		var h api.Header
		require.NoError(t, json.Unmarshal(m.data, &h))
		assert.Equal(t, "uuid-1", h.EvalUuid)
		types = append(types, h.MsgType)
	}
	assert.Equal(t, []api.MsgType{
		api.StartJobMsg, api.FinishSampleMsg, api.ReachTestMsg, api.FinishTestMsg, api.FinishJobMsg,
	}, types)

	var reach api.ReachTest
	require.NoError(t, json.Unmarshal(pub.msgs[2].data, &reach))
	assert.Nil(t, reach.Input)
	require.NotNil(t, reach.Answer)
	assert.Equal(t, "8", *reach.Answer)

	var finish api.FinishTest
	require.NoError(t, json.Unmarshal(pub.msgs[3].data, &finish))
	assert.Equal(t, strings.Repeat("x", api.MaxStreamTextWidth)+"[...]", finish.Actual)
}

func TestGatherer_PublishErrorDoesNotPanic(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	g := New(pub, "grader.events", "uuid-2", discard)

	assert.NotPanics(t, func() { g.FinishJob(true) })
	assert.Len(t, pub.msgs, 1)
}
