package envelope

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/qrdrop/checksum"
	"github.com/moyoez/qrdrop/types"
)

func buildText(t *testing.T, data []byte, name string, category types.Category) string {
	t.Helper()
	env, err := Build(data, name, category)
	require.NoError(t, err)
	text, err := env.Marshal()
	require.NoError(t, err)
	return text
}

func TestBuildParseFidelity(t *testing.T) {
	data := []byte{0x00, 0x10, 0xff, 'h', 'i', '\n'}
	text := buildText(t, data, "notes.txt", types.CategoryLectureNotes)

	env, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", env.FileName)
	assert.Equal(t, types.CategoryLectureNotes, env.Category)
	assert.Equal(t, int64(len(data)), env.FileSize)
	assert.Equal(t, checksum.Bytes(data), env.Checksum)

	decoded, err := env.Decode()
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestBuildEmptyFile(t *testing.T) {
	env, err := Parse(buildText(t, nil, "empty.bin", types.CategoryOthers))
	require.NoError(t, err)
	assert.Equal(t, int64(0), env.FileSize)
	assert.Equal(t, "", env.Content)
}

func TestMarshalWireFormat(t *testing.T) {
	text := buildText(t, []byte("abc"), "a.txt", types.CategoryAssignments)

	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &wire))
	assert.Len(t, wire, 5)
	assert.Equal(t, "a.txt", wire["fileName"])
	assert.Equal(t, float64(3), wire["fileSize"])
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", wire["checksum"])
	assert.Equal(t, "YWJj", wire["fileContent"])
	assert.Equal(t, "ASSIGNMENTS", wire["category"])
}

func TestBuildValidatesInput(t *testing.T) {
	_, err := Build([]byte("x"), "", types.CategoryOthers)
	require.ErrorIs(t, err, types.ErrMissingField)

	_, err = Build([]byte("x"), "a.txt", types.Category("HOMEWORK"))
	require.ErrorIs(t, err, types.ErrUnknownCategory)
}

func TestBuildFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "essay.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	env, err := BuildFromFile(path, types.CategoryAssignments)
	require.NoError(t, err)
	assert.Equal(t, "essay.pdf", env.FileName)
	assert.Equal(t, int64(8), env.FileSize)
	sum, err := checksum.File(path)
	require.NoError(t, err)
	assert.Equal(t, sum, env.Checksum)
	data, err := env.Decode()
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	_, err = BuildFromFile(path, types.Category("HOMEWORK"))
	require.ErrorIs(t, err, types.ErrUnknownCategory)

	_, err = BuildFromFile(filepath.Join(t.TempDir(), "missing"), types.CategoryAssignments)
	require.Error(t, err)
	assert.Equal(t, types.KindNone, types.KindOf(err))
}

func TestParseMalformed(t *testing.T) {
	for _, text := range []string{"", "hello", "{", `["fileName"]`, "null", "42", `{"fileName": }`} {
		_, err := Parse(text)
		require.ErrorIs(t, err, types.ErrMalformedEnvelope, "input %q", text)
	}
}

func TestParseMissingField(t *testing.T) {
	full := map[string]interface{}{
		"fileName":    "a.txt",
		"fileSize":    3,
		"checksum":    checksum.Bytes([]byte("abc")),
		"fileContent": "YWJj",
		"category":    "OTHERS",
	}
	for key := range full {
		t.Run(key, func(t *testing.T) {
			partial := make(map[string]interface{}, len(full))
			for k, v := range full {
				if k != key {
					partial[k] = v
				}
			}
			raw, err := json.Marshal(partial)
			require.NoError(t, err)

			_, err = Parse(string(raw))
			require.ErrorIs(t, err, types.ErrMissingField)
			var te *types.TransferError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, key, te.Field)
		})
	}
}

func TestParseWrongTypes(t *testing.T) {
	cases := map[string]string{
		"fileName":    `{"fileName":1,"fileSize":3,"checksum":"c","fileContent":"YWJj","category":"OTHERS"}`,
		"fileSize":    `{"fileName":"a","fileSize":"3","checksum":"c","fileContent":"YWJj","category":"OTHERS"}`,
		"checksum":    `{"fileName":"a","fileSize":3,"checksum":null,"fileContent":"YWJj","category":"OTHERS"}`,
		"fileContent": `{"fileName":"a","fileSize":3,"checksum":"c","fileContent":["YWJj"],"category":"OTHERS"}`,
		"category":    `{"fileName":"a","fileSize":3,"checksum":"c","fileContent":"YWJj","category":2}`,
	}
	for field, text := range cases {
		_, err := Parse(text)
		var te *types.TransferError
		require.ErrorAs(t, err, &te, field)
		assert.Equal(t, types.KindMissingField, te.Kind, field)
		assert.Equal(t, field, te.Field)
	}

	for _, size := range []string{"3.5", "-1", "1e400"} {
		_, err := Parse(`{"fileName":"a","fileSize":` + size + `,"checksum":"c","fileContent":"YWJj","category":"OTHERS"}`)
		if !assert.Error(t, err, size) {
			continue
		}
		assert.NotEqual(t, types.KindNone, types.KindOf(err), size)
	}
}

func TestParseUnknownCategory(t *testing.T) {
	text := strings.Replace(buildText(t, []byte("abc"), "a.txt", types.CategoryOthers), `"OTHERS"`, `"HOMEWORK"`, 1)

	_, err := Parse(text)
	require.ErrorIs(t, err, types.ErrUnknownCategory)
}

func TestParseEmptyFileName(t *testing.T) {
	_, err := Parse(`{"fileName":"","fileSize":0,"checksum":"c","fileContent":"","category":"OTHERS"}`)
	require.ErrorIs(t, err, types.ErrMissingField)
}

func TestParseIgnoresUnknownKeys(t *testing.T) {
	text := buildText(t, []byte("abc"), "a.txt", types.CategoryOthers)
	text = strings.Replace(text, "{", `{"version":2,`, 1)

	env, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", env.FileName)
}

func TestParseExponentSize(t *testing.T) {
	env, err := Parse(`{"fileName":"a","fileSize":1e1,"checksum":"c","fileContent":"YWJj","category":"OTHERS"}`)
	require.NoError(t, err)
	assert.Equal(t, int64(10), env.FileSize)

	_, err = Parse(`{"fileName":"a","fileSize":2.5e0,"checksum":"c","fileContent":"YWJj","category":"OTHERS"}`)
	require.ErrorIs(t, err, types.ErrMissingField)
}

func TestParseRejectsInvalidUTF8(t *testing.T) {
	_, err := Parse("{\"fileName\":\"a\xff.txt\",\"fileSize\":3,\"checksum\":\"c\",\"fileContent\":\"YWJj\",\"category\":\"OTHERS\"}")
	require.ErrorIs(t, err, types.ErrMalformedEnvelope)
}
