package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsJohnCnstn/httpcall/packages/client"
)

func TestConsoleFormatter_PrintResponse(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	resp := client.NewBufferedResponse(200,
		map[string]string{"Content-Type": "application/json"},
		[]byte(`{"ok":true}`))

	require.NoError(t, f.PrintResponse(resp))
	out := buf.String()
	assert.Contains(t, out, "200 OK")
	assert.Contains(t, out, "\"ok\": true")
}

func TestConsoleFormatter_VerboseHeaders(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	resp := client.NewBufferedResponse(302,
		map[string]string{"Location": "/long"},
		nil)

	require.NoError(t, f.PrintResponse(resp))
	assert.Contains(t, buf.String(), "Location: /long")
	assert.Contains(t, buf.String(), "302 Found")
}

func TestConsoleFormatter_PrintValue(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.PrintValue("plain")
	f.PrintValue(map[string]any{"n": float64(1)})

	assert.Equal(t, "plain\n{\"n\":1}\n", buf.String())
}
