package mailer

import (
	"bytes"
	"html/template"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesRender(t *testing.T) {
	files, err := fs.Glob(templateFS, "templates/*.tmpl")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	data := map[string]any{
		"Name":          "Grace Hopper",
		"ReservationID": "5d3a1b2c-8e7f-4a6b-9c0d-1e2f3a4b5c6d",
		"PartySize":     4,
		"Date":          "Friday, Jun 10, 2095",
		"TimeSlot":      "19:00",
		"Amount":        "170.00",
		"Refunded":      true,
	}

	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			tmpl, err := template.New("email").ParseFS(templateFS, file)
			require.NoError(t, err)

			for _, name := range []string{"subject", "plainBody", "htmlBody"} {
				buf := new(bytes.Buffer)
				require.NoError(t, tmpl.ExecuteTemplate(buf, name, data), name)
				assert.NotEmpty(t, bytes.TrimSpace(buf.Bytes()), name)
			}
		})
	}
}

func TestMockMailer(t *testing.T) {
	m := NewMockMailer()

	require.NoError(t, m.Send("ada@example.com", "reservation_confirmed.tmpl", nil))
	assert.Len(t, m.GetSentEmails(), 1)

	m.Reset()
	assert.Empty(t, m.GetSentEmails())
}
