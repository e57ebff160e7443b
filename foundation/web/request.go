package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dimfeld/httptreemux/v5"
)

// maxBodyBytes is the largest request body that will be decoded.
const maxBodyBytes = 1 << 20

// validator is implemented by values that can check their own content once
// decoded.
type validator interface {
	Validate() error
}

// Param returns the web call parameters from the request.
func Param(r *http.Request, key string) string {
	m := httptreemux.ContextParams(r.Context())
	return m[key]
}

// Decode reads the body of an HTTP request looking for a JSON document. The
// body is decoded into the provided value. Numbers are decoded as
// json.Number so their literals are kept. If the provided value implements
// Validate, it's called after decoding.
func Decode(r *http.Request, val any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	if err := decoder.Decode(val); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}

	if decoder.More() {
		return errors.New("decoding body: unexpected data after JSON document")
	}

	if v, ok := val.(validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	return nil
}
