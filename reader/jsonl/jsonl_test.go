package jsonl

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/sutradhar/core"
)

const sample = `{"id":"e1","type":"user_message","content":{"text":"hi"}}
not json
{"id":"e2","type":"tool_call","content":{"tool_name":"Bash","tool_input":{"command":"ls"}}}

{"id":"e3","content":{"text":"no type"}}
{"type":"agent_response","content":{"text":"done"}}
`

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    core.Event
		wantErr bool
	}{
		{
			name: "valid",
			line: `{"id":"a","type":"agent_thinking","content":{"text":"x"}}`,
			want: core.Event{ID: "a", Kind: core.EventAgentThinking, Content: map[string]any{"text": "x"}},
		},
		{name: "malformed", line: `{"id":`, wantErr: true},
		{name: "no type", line: `{"id":"a"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.line))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Decode([]byte(`{"id":"a"}`))
	assert.ErrorIs(t, err, ErrNoType)
}

func TestScanSkipsMalformedLines(t *testing.T) {
	var got []core.Event
	err := Scan(strings.NewReader(sample), func(ev core.Event) error {
		got = append(got, ev)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "e2", got[1].ID)
	assert.Equal(t, LineID(6), got[2].ID, "missing id filled from line number")
	assert.Equal(t, core.EventAgentResponse, got[2].Kind)
}

func TestScanStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	n := 0
	err := Scan(strings.NewReader(sample), func(core.Event) error {
		n++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestScanLongLine(t *testing.T) {
	big := strings.Repeat("x", 200*1024)
	line := `{"id":"big","type":"tool_result","content":{"result":"` + big + `"}}`
	var got core.Event
	require.NoError(t, Scan(strings.NewReader(line), func(ev core.Event) error {
		got = ev
		return nil
	}))
	assert.Equal(t, big, got.String("result"))
}

func TestScanSkipsOversizedLine(t *testing.T) {
	big := `{"id":"b","type":"tool_result","content":{"result":"` + strings.Repeat("x", 2*MaxLineSize) + `"}}`
	in := `{"id":"a","type":"user_message","content":{"text":"hi"}}` + "\n" +
		big + "\n" +
		`{"type":"complete"}` + "\n"

	var ids []string
	err := Scan(strings.NewReader(in), func(ev core.Event) error {
		ids = append(ids, ev.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", LineID(3)}, ids, "oversized line dropped, numbering kept")
}

func TestScanCRLF(t *testing.T) {
	in := `{"id":"a","type":"complete"}` + "\r\n" + `{"type":"complete"}` + "\r\n"
	var ids []string
	require.NoError(t, Scan(strings.NewReader(in), func(ev core.Event) error {
		ids = append(ids, ev.ID)
		return nil
	}))
	assert.Equal(t, []string{"a", LineID(2)}, ids)
}

func TestReaderDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s2.jsonl"), []byte(sample), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s1.jsonl"), []byte(sample), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	r := &Reader{Dir: dir}

	ids, err := r.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)

	log, err := r.ReadSession("s2")
	require.NoError(t, err)
	assert.Equal(t, "s2", log.SessionID)
	assert.Len(t, log.Events, 3)

	_, err = r.ReadSession("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "s1", all[0].SessionID)
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := &core.EventLog{SessionID: "abc", Events: []core.Event{
		{ID: "1", Kind: core.EventUserMessage, Content: map[string]any{"text": "hello"}},
		{ID: "2", Kind: core.EventComplete},
	}}

	path, err := WriteFile(dir, in)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.jsonl"), path)

	out, err := (&Reader{}).ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in.SessionID, out.SessionID)
	require.Len(t, out.Events, 2)
	assert.Equal(t, "hello", out.Events[0].String("text"))
	assert.Equal(t, core.EventComplete, out.Events[1].Kind)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file cleaned up")
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []core.Event{{ID: "x", Kind: core.EventComplete}}))
	assert.Equal(t, `{"id":"x","type":"complete","content":null}`+"\n", buf.String())
}
