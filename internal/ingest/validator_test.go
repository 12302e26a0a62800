package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	body := []byte(`{"key":"pm_ABCDEFG","versions":[{"variable":"nginx","version":"1.24.0"}]}`)
	p, perr := ParsePayload(body, "application/json", "")
	require.Nil(t, perr)
	assert.Equal(t, "pm_ABCDEFG", p.Key)
	require.Len(t, p.Entries, 1)
	assert.Equal(t, "nginx", p.Entries[0].Variable)
	assert.Equal(t, "1.24.0", p.Entries[0].Version)
	assert.Zero(t, p.InvalidEntries)
}

func TestParsePayload_ContentType(t *testing.T) {
	body := []byte(`{"key":"k","versions":[]}`)

	_, perr := ParsePayload(body, "text/plain", "")
	assert.Equal(t, ErrUnsupportedMedia, perr)

	_, perr = ParsePayload(body, "", "")
	assert.Equal(t, ErrUnsupportedMedia, perr)

	// Parameters after the media type are fine
	p, perr := ParsePayload(body, "application/json; charset=utf-8", "")
	require.Nil(t, perr)
	assert.Empty(t, p.Entries)
}

func TestParsePayload_AlternateFieldNames(t *testing.T) {
	body := []byte(`{"key":"k","entries":[{"name":"docker","value":"24.0.7"}]}`)
	p, perr := ParsePayload(body, "application/json", "")
	require.Nil(t, perr)
	require.Len(t, p.Entries, 1)
	assert.Equal(t, "docker", p.Entries[0].Variable)
	assert.Equal(t, "24.0.7", p.Entries[0].Version)
}

func TestParsePayload_MissingKey(t *testing.T) {
	_, perr := ParsePayload([]byte(`{"versions":[]}`), "application/json", "")
	require.NotNil(t, perr)
	assert.Equal(t, "missing key", perr.Msg)
}

func TestParsePayload_HeaderKeyFallback(t *testing.T) {
	body := []byte(`{"versions":[{"variable":"nginx","version":"1.24.0"}]}`)
	p, perr := ParsePayload(body, "application/json", "pm_HDRKEY1")
	require.Nil(t, perr)
	assert.Equal(t, "pm_HDRKEY1", p.Key)

	// The body key wins when both are present.
	body = []byte(`{"key":"pm_BODYKEY","versions":[]}`)
	p, perr = ParsePayload(body, "application/json", "pm_HDRKEY1")
	require.Nil(t, perr)
	assert.Equal(t, "pm_BODYKEY", p.Key)
}

func TestParsePayload_MissingVersions(t *testing.T) {
	_, perr := ParsePayload([]byte(`{"key":"k"}`), "application/json", "")
	require.NotNil(t, perr)
	assert.Equal(t, "missing versions array", perr.Msg)
}

func TestParsePayload_StripsControlChars(t *testing.T) {
	body := []byte("{\"key\":\"k\x01\x02\",\"versions\":[]}")
	p, perr := ParsePayload(body, "application/json", "")
	require.Nil(t, perr)
	assert.Equal(t, "k", p.Key)
}

func TestParsePayload_KeepsWhitespaceControls(t *testing.T) {
	body := []byte("{\n\t\"key\": \"k\",\r\n\t\"versions\": []\n}")
	p, perr := ParsePayload(body, "application/json", "")
	require.Nil(t, perr)
	assert.Equal(t, "k", p.Key)
}

func TestParsePayload_SyntaxErrorPosition(t *testing.T) {
	body := []byte("{\"key\":\"k\",\n\"versions\":[}")
	_, perr := ParsePayload(body, "application/json", "")
	require.NotNil(t, perr)
	assert.Equal(t, "invalid JSON", perr.Msg)
	assert.Contains(t, perr.Details, "offset")
	assert.Contains(t, perr.Details, "line 2")
	assert.Equal(t, string(body), perr.Preview)
}

func TestParsePayload_PreviewTruncated(t *testing.T) {
	big := `{"key":"` + strings.Repeat("x", 2000)
	_, perr := ParsePayload([]byte(big), "application/json", "")
	require.NotNil(t, perr)
	assert.LessOrEqual(t, len(perr.Preview), previewLimit+40)
	assert.Contains(t, perr.Preview, "bytes total")
}

func TestParsePayload_CountsInvalidEntries(t *testing.T) {
	body := []byte(`{"key":"k","versions":[
		{"variable":"nginx","version":"1.24.0"},
		{"variable":"","version":"1.0"},
		{"version":"2.0"},
		{"variable":"docker"}
	]}`)
	p, perr := ParsePayload(body, "application/json", "")
	require.Nil(t, perr)
	assert.Len(t, p.Entries, 1)
	assert.Equal(t, 3, p.InvalidEntries)
}

func TestParsePayload_EmptyVersionIsValid(t *testing.T) {
	body := []byte(`{"key":"k","versions":[{"variable":"nginx","version":""}]}`)
	p, perr := ParsePayload(body, "application/json", "")
	require.Nil(t, perr)
	require.Len(t, p.Entries, 1)
	assert.Empty(t, p.Entries[0].Version)
}

func TestExtractKey(t *testing.T) {
	body := []byte(`{"key":"body-key"}`)

	assert.Equal(t, "header-key", ExtractKey(body, "header-key", "1.2.3.4"))
	assert.Equal(t, "body-key", ExtractKey(body, "", "1.2.3.4"))
	assert.Equal(t, "1.2.3.4", ExtractKey([]byte(`not json`), "", "1.2.3.4"))
	assert.Equal(t, "1.2.3.4", ExtractKey([]byte(`{"key":""}`), "", "1.2.3.4"))
	assert.Equal(t, "1.2.3.4", ExtractKey(nil, "", "1.2.3.4"))
}

func TestParseErrorError(t *testing.T) {
	assert.Equal(t, "bad", (&ParseError{Msg: "bad"}).Error())
	assert.Equal(t, "bad: detail", (&ParseError{Msg: "bad", Details: "detail"}).Error())
}

func FuzzParsePayload(f *testing.F) {
	f.Add([]byte(`{"key":"k","versions":[{"variable":"nginx","version":"1.0"}]}`), "application/json", "")
	f.Add([]byte(`{"key":"k"}`), "application/json", "")
	f.Add([]byte(`{"versions":[]}`), "application/json", "pm_header")
	f.Add([]byte(`{}`), "text/plain", "")
	f.Add([]byte("\x00\x01\x02"), "application/json", "")

	f.Fuzz(func(t *testing.T, body []byte, contentType, headerKey string) {
		p, perr := ParsePayload(body, contentType, headerKey)
		if perr != nil {
			if len(perr.Preview) > previewLimit+40 {
				t.Errorf("preview too long: %d bytes", len(perr.Preview))
			}
			return
		}
		if p.Key == "" {
			t.Error("accepted payload without key")
		}
		for _, e := range p.Entries {
			if e.Variable == "" {
				t.Error("accepted entry without variable")
			}
		}
	})
}

func FuzzExtractKey(f *testing.F) {
	f.Add([]byte(`{"key":"k"}`), "", "fallback")
	f.Add([]byte(`garbage`), "hdr", "fallback")

	f.Fuzz(func(t *testing.T, body []byte, headerKey, fallback string) {
		key := ExtractKey(body, headerKey, fallback)
		if headerKey != "" && key != headerKey {
			t.Errorf("header key not preferred: got %q", key)
		}
		if headerKey == "" && key == "" && fallback != "" {
			t.Error("empty key despite non-empty fallback")
		}
	})
}

func BenchmarkParsePayload(b *testing.B) {
	var sb strings.Builder
	sb.WriteString(`{"key":"pm_BENCHKEY","versions":[`)
	for i := range 50 {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, `{"variable":"pkg%d","version":"1.%d.0"}`, i, i)
	}
	sb.WriteString(`]}`)
	body := []byte(sb.String())

	for b.Loop() {
		if _, perr := ParsePayload(body, "application/json", ""); perr != nil {
			b.Fatal(perr)
		}
	}
}
