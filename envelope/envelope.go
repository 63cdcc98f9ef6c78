// Package envelope builds and parses the self-describing JSON payload carried
// by a single QR code.
package envelope

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/moyoez/qrdrop/checksum"
	"github.com/moyoez/qrdrop/codec"
	"github.com/moyoez/qrdrop/types"
)

// Wire keys.
const (
	FieldFileName    = "fileName"
	FieldFileSize    = "fileSize"
	FieldChecksum    = "checksum"
	FieldFileContent = "fileContent"
	FieldCategory    = "category"
)

// Envelope is an immutable value; copy it freely.
type Envelope struct {
	FileName string         `json:"fileName"`
	FileSize int64          `json:"fileSize"`
	Checksum string         `json:"checksum"`
	Content  string         `json:"fileContent"`
	Category types.Category `json:"category"`
}

// numbers decode as json.Number so fileSize keeps integer precision;
// strings must be valid UTF-8
var strictAPI = sonic.Config{UseNumber: true, ValidateString: true}.Froze()

// Build digests and encodes data.
func Build(data []byte, fileName string, category types.Category) (Envelope, error) {
	if err := validate(fileName, category); err != nil {
		return Envelope{}, err
	}
	return assemble(data, fileName, category, checksum.Bytes(data)), nil
}

func validate(fileName string, category types.Category) error {
	if fileName == "" {
		return &types.TransferError{Kind: types.KindMissingField, Field: FieldFileName}
	}
	if !category.Valid() {
		return &types.TransferError{Kind: types.KindUnknownCategory, Field: FieldCategory, Err: fmt.Errorf("unknown category %q", category)}
	}
	return nil
}

func assemble(data []byte, fileName string, category types.Category, sum string) Envelope {
	return Envelope{
		FileName: fileName,
		FileSize: int64(len(data)),
		Checksum: sum,
		Content:  codec.Encode(data),
		Category: category,
	}
}

// BuildFromFile builds an envelope for the file at path, named by its base name.
// The digest is streamed from disk before the content is read.
func BuildFromFile(path string, category types.Category) (Envelope, error) {
	name := filepath.Base(path)
	if err := validate(name, category); err != nil {
		return Envelope{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sum, err := checksum.Digest(f)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to digest %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Envelope{}, fmt.Errorf("failed to rewind %s: %w", path, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return assemble(data, name, category, sum), nil
}

// Marshal serializes the envelope to its compact wire text.
func (e Envelope) Marshal() (string, error) {
	text, err := sonic.MarshalString(e)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %v", err)
	}
	return text, nil
}

// Decode returns the raw bytes carried in Content.
func (e Envelope) Decode() ([]byte, error) {
	return codec.Decode(e.Content)
}

// Parse validates the syntax of text and returns the envelope. It does not
// check Checksum or FileSize against the content.
func Parse(text string) (Envelope, error) {
	var fields map[string]interface{}
	if err := strictAPI.UnmarshalFromString(text, &fields); err != nil {
		return Envelope{}, types.NewError(types.KindMalformedEnvelope, err)
	}
	if fields == nil {
		return Envelope{}, types.NewError(types.KindMalformedEnvelope, fmt.Errorf("envelope is not an object"))
	}

	var (
		env Envelope
		err error
	)
	if env.FileName, err = stringField(fields, FieldFileName); err != nil {
		return Envelope{}, err
	}
	if env.FileSize, err = sizeField(fields, FieldFileSize); err != nil {
		return Envelope{}, err
	}
	if env.Checksum, err = stringField(fields, FieldChecksum); err != nil {
		return Envelope{}, err
	}
	if env.Content, err = stringField(fields, FieldFileContent); err != nil {
		return Envelope{}, err
	}
	category, err := stringField(fields, FieldCategory)
	if err != nil {
		return Envelope{}, err
	}
	if env.Category, err = types.ParseCategory(category); err != nil {
		return Envelope{}, err
	}
	if env.FileName == "" {
		return Envelope{}, missing(FieldFileName, fmt.Errorf("empty"))
	}
	return env, nil
}

func missing(field string, cause error) error {
	return &types.TransferError{Kind: types.KindMissingField, Field: field, Err: cause}
}

func stringField(fields map[string]interface{}, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", missing(key, nil)
	}
	s, ok := raw.(string)
	if !ok {
		return "", missing(key, fmt.Errorf("want string, got %T", raw))
	}
	return s, nil
}

func sizeField(fields map[string]interface{}, key string) (int64, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, missing(key, nil)
	}
	var n int64
	switch v := raw.(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			// whole numbers may be written with an exponent, e.g. 1e3
			f, ferr := v.Float64()
			if ferr != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
				return 0, missing(key, fmt.Errorf("want integer, got %s", v))
			}
			i = int64(f)
		}
		n = i
	case int64:
		n = v
	case float64:
		if v != float64(int64(v)) {
			return 0, missing(key, fmt.Errorf("want integer, got %v", v))
		}
		n = int64(v)
	default:
		return 0, missing(key, fmt.Errorf("want integer, got %T", raw))
	}
	if n < 0 {
		return 0, missing(key, fmt.Errorf("negative size %d", n))
	}
	return n, nil
}
