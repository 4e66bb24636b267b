package formats

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ytget/ytdl/errs"
	"github.com/ytget/ytdl/internal/logger"
	"github.com/ytget/ytdl/internal/mimeext"
	"github.com/ytget/ytdl/types"
	"github.com/ytget/ytdl/youtube/cipher"
	"github.com/ytget/ytdl/youtube/watch"
)

// DefaultSignatureParam is the query parameter a deciphered signature is
// stored under when the cipher names none.
const DefaultSignatureParam = "signature"

var log = logger.WithComponent(logger.ComponentFormat)

// ParseFormats converts the player response streaming data (progressive
// formats first, then adaptive) into sources. A source without a direct URL
// keeps its signatureCipher, or the older cipher field, for ResolveURL.
func ParseFormats(data *watch.PlayerResponse) []types.Format {
	if data == nil {
		return nil
	}
	all := data.AllFormats()
	out := make([]types.Format, 0, len(all))
	for _, f := range all {
		var size int64
		if f.ContentLength != "" {
			if parsed, err := strconv.ParseInt(f.ContentLength, 10, 64); err == nil {
				size = parsed
			}
		}
		quality := f.QualityLabel
		if quality == "" {
			quality = f.Quality
		}
		format := types.Format{
			Itag:     f.Itag,
			MimeType: f.MimeType,
			Ext:      mimeext.ExtFromMime(f.MimeType),
			Quality:  quality,
			Bitrate:  f.Bitrate,
			Size:     size,
		}
		switch {
		case f.URL != "":
			format.URL = f.URL
		case f.SignatureCipher != "":
			format.SignatureCipher = f.SignatureCipher
		case f.Cipher != "":
			format.SignatureCipher = f.Cipher
		default:
			log.Debug("format without url or cipher", map[string]interface{}{"itag": f.Itag})
			continue
		}
		out = append(out, format)
	}
	return out
}

// ParseStreamMap parses a legacy url_encoded_fmt_stream_map: comma separated,
// url-encoded entries. Entries carrying an s field become ciphered sources;
// a plain sig is merged into the URL directly.
func ParseStreamMap(streamMap string) ([]types.Format, error) {
	var out []types.Format
	for i, entry := range strings.Split(streamMap, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		v, err := url.ParseQuery(entry)
		if err != nil {
			return nil, fmt.Errorf("parse stream map entry %d: %w", i, err)
		}
		itag, _ := strconv.Atoi(v.Get("itag"))
		format := types.Format{
			Itag:     itag,
			MimeType: v.Get("type"),
			Ext:      mimeext.ExtFromMime(v.Get("type")),
			Quality:  v.Get("quality"),
		}
		rawURL := v.Get("url")
		switch {
		case rawURL == "":
			log.Debug("stream map entry without url", map[string]interface{}{"index": i})
			continue
		case v.Get("s") != "":
			c := url.Values{}
			c.Set("s", v.Get("s"))
			if sp := v.Get("sp"); sp != "" {
				c.Set("sp", sp)
			}
			c.Set("url", rawURL)
			format.SignatureCipher = c.Encode()
		case v.Get("sig") != "":
			u, err := withParam(rawURL, DefaultSignatureParam, v.Get("sig"))
			if err != nil {
				return nil, fmt.Errorf("stream map entry %d: %w", i, err)
			}
			format.URL = u
			format.Signature = v.Get("sig")
		default:
			format.URL = rawURL
		}
		out = append(out, format)
	}
	return out, nil
}

// ResolveURL returns f with a playable URL. Sources with a direct URL are
// returned unchanged; ciphered sources get their s field deciphered with the
// script at scriptURL and merged into the URL under sp.
func ResolveURL(ctx context.Context, d *cipher.Decipherer, scriptURL string, f types.Format) (types.Format, error) {
	if !f.Ciphered() {
		return f, nil
	}
	sc, err := parseCipher(f.SignatureCipher)
	if err != nil {
		return f, err
	}
	sig, err := d.Decipher(ctx, scriptURL, sc.s)
	if err != nil {
		return f, fmt.Errorf("itag %d: %w: %w", f.Itag, errs.ErrCipherFailed, err)
	}
	return sc.apply(f, sig)
}

// ResolveAll resolves every ciphered source with a single token sequence
// lookup. Per-source failures are recorded in Format.Err; the returned error
// is non-nil only when the sequence for scriptURL could not be obtained, in
// which case every ciphered source carries that error.
func ResolveAll(ctx context.Context, d *cipher.Decipherer, scriptURL string, list []types.Format) ([]types.Format, error) {
	out := make([]types.Format, len(list))
	copy(out, list)

	ciphered := 0
	for i := range out {
		if out[i].Ciphered() {
			ciphered++
		}
	}
	if ciphered == 0 {
		return out, nil
	}

	seq, err := d.Tokens(ctx, scriptURL)
	if err != nil {
		err = fmt.Errorf("%w: %w", errs.ErrCipherFailed, err)
		for i := range out {
			if out[i].Ciphered() {
				out[i].Err = err.Error()
			}
		}
		return out, err
	}

	failed := 0
	for i := range out {
		if !out[i].Ciphered() {
			continue
		}
		resolved, rerr := resolveWith(seq, out[i])
		if rerr != nil {
			failed++
			out[i].Err = rerr.Error()
			log.Warn("source not resolved", map[string]interface{}{"itag": out[i].Itag, "error": rerr.Error()})
			continue
		}
		out[i] = resolved
	}
	log.Debug("sources resolved", map[string]interface{}{
		"ciphered": ciphered,
		"failed":   failed,
		"tokens":   seq.String(),
	})
	return out, nil
}

func resolveWith(seq cipher.TokenSequence, f types.Format) (types.Format, error) {
	sc, err := parseCipher(f.SignatureCipher)
	if err != nil {
		return f, err
	}
	sig, err := cipher.Apply(seq, sc.s)
	if err != nil {
		return f, fmt.Errorf("itag %d: %w: %w", f.Itag, errs.ErrCipherFailed, err)
	}
	return sc.apply(f, sig)
}

type signatureCipher struct {
	s   string
	sp  string
	url string
}

func parseCipher(raw string) (signatureCipher, error) {
	v, err := url.ParseQuery(raw)
	if err != nil {
		return signatureCipher{}, fmt.Errorf("parse signature cipher: %w", err)
	}
	sc := signatureCipher{s: v.Get("s"), sp: v.Get("sp"), url: v.Get("url")}
	if sc.s == "" || sc.url == "" {
		return sc, fmt.Errorf("signature cipher missing s or url: %w", errs.ErrCipherFailed)
	}
	if sc.sp == "" {
		sc.sp = DefaultSignatureParam
	}
	return sc, nil
}

func (sc signatureCipher) apply(f types.Format, sig string) (types.Format, error) {
	u, err := withParam(sc.url, sc.sp, sig)
	if err != nil {
		return f, err
	}
	f.URL = u
	f.Signature = sig
	f.Err = ""
	return f, nil
}

func withParam(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
