package relay

import (
	"errors"
	"fmt"

	"netfree-relay-go/pkg/classify"
	"netfree-relay-go/pkg/types"
	"netfree-relay-go/pkg/urlutil"

	"github.com/buger/jsonparser"
)

// ErrNoSources is returned when an envelope carries no extractable sources
// array. A client-visible not-found condition, never a crash.
var ErrNoSources = errors.New("HLS URL not found in response")

// ExtractSources derives the streaming-source list from an envelope whose
// payload is a playlist JSON document. The sources array may sit directly
// on the document or one level under a "data" key; any other shape is a
// structural extraction error. Relative file references are absolutized
// against the upstream origin. Input order is preserved.
func ExtractSources(env *types.Envelope, origin string) ([]types.StreamingSource, error) {
	jp, ok := env.Data.(classify.JSON)
	if !ok {
		return nil, ErrNoSources
	}

	raw := []byte(jp.Value)

	var out []types.StreamingSource
	var walkErr error
	collect := func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if walkErr != nil {
			return
		}
		if err != nil {
			walkErr = err
			return
		}

		file, ferr := jsonparser.GetString(value, "file")
		if ferr != nil || file == "" {
			walkErr = fmt.Errorf("source entry missing file field")
			return
		}

		label, lerr := jsonparser.GetString(value, "label")
		if lerr != nil {
			label = "Unknown"
		}
		mediaType, terr := jsonparser.GetString(value, "type")
		if terr != nil {
			mediaType = "Unknown"
		}
		isDefault, derr := jsonparser.GetBoolean(value, "default")
		if derr != nil {
			isDefault = false
		}

		out = append(out, types.StreamingSource{
			Quality: label,
			URL:     urlutil.Absolutize(file, origin),
			Type:    mediaType,
			Default: isDefault,
		})
	}

	if _, err := jsonparser.ArrayEach(raw, collect, "sources"); err != nil {
		out, walkErr = nil, nil
		if _, err := jsonparser.ArrayEach(raw, collect, "data", "sources"); err != nil {
			return nil, ErrNoSources
		}
	}

	if walkErr != nil {
		return nil, walkErr
	}
	if len(out) == 0 {
		return nil, ErrNoSources
	}
	return out, nil
}
