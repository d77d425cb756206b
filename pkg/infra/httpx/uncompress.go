package httpx

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fasthttp"
)

type decoder func(body []byte) ([]byte, error)

var decoders = map[string]decoder{
	"br":      decodeBrotli,
	"gzip":    decodeGzip,
	"x-gzip":  decodeGzip,
	"zstd":    decodeZstd,
	"deflate": decodeDeflate,
}

// DecodeChain undoes the Content-Encoding of resp, applying chained
// encodings such as "gzip, br" in reverse order. It reports whether the body
// was changed.
func DecodeChain(resp *fasthttp.Response, body []byte) ([]byte, bool, error) {
	return DecodeEncoding(string(resp.Header.Peek("Content-Encoding")), body)
}

func DecodeEncoding(contentEncoding string, body []byte) ([]byte, bool, error) {
	if contentEncoding == "" || len(body) == 0 {
		return body, false, nil
	}
	encodings := strings.Split(contentEncoding, ",")
	changed := false
	for i := len(encodings) - 1; i >= 0; i-- {
		name := strings.TrimSpace(strings.ToLower(encodings[i]))
		switch name {
		case "", "identity":
			continue
		}
		decode, ok := decoders[name]
		if !ok {
			return nil, false, fmt.Errorf("unsupported content-encoding: %q", name)
		}
		out, err := decode(body)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", name, err)
		}
		body = out
		changed = true
	}
	return body, changed, nil
}

func decodeBrotli(body []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
}

func decodeGzip(body []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}

func decodeZstd(body []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

// decodeDeflate accepts zlib-wrapped data and falls back to raw DEFLATE.
func decodeDeflate(body []byte) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
		defer zr.Close()
		return io.ReadAll(zr)
	}
	fr := flate.NewReader(bytes.NewReader(body))
	defer fr.Close()
	return io.ReadAll(fr)
}
