package cipher

import (
	"context"
)

// Fetcher retrieves the text of a player script.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// Decipherer turns cipher strings into plaintext signatures for a given
// player script URL.
type Decipherer struct {
	fetcher Fetcher
	cache   *Cache
}

// NewDecipherer returns a Decipherer. A nil cache gets a fresh private one.
func NewDecipherer(fetcher Fetcher, cache *Cache) *Decipherer {
	if cache == nil {
		cache = NewCache()
	}
	return &Decipherer{fetcher: fetcher, cache: cache}
}

// Cache returns the cache backing d.
func (d *Decipherer) Cache() *Cache {
	return d.cache
}

// Tokens returns the token sequence of the script at scriptURL, fetching and
// extracting it on first use of its version.
func (d *Decipherer) Tokens(ctx context.Context, scriptURL string) (TokenSequence, error) {
	version, err := VersionFromURL(scriptURL)
	if err != nil {
		return nil, err
	}
	return d.cache.GetOrBuild(ctx, version, func(ctx context.Context) (string, error) {
		if d.fetcher == nil {
			return "", NewError(ErrCodeScriptFetch, "no fetcher configured", scriptURL)
		}
		script, err := d.fetcher.Fetch(ctx, scriptURL)
		if err != nil {
			return "", wrapError(ErrCodeScriptFetch, "failed to fetch player script", err, scriptURL)
		}
		return script, nil
	})
}

// Decipher returns the plaintext signature for cipher.
func (d *Decipherer) Decipher(ctx context.Context, scriptURL, cipher string) (string, error) {
	seq, err := d.Tokens(ctx, scriptURL)
	if err != nil {
		return "", err
	}
	return Apply(seq, cipher)
}

// DecipherAll deciphers every cipher with one sequence lookup. It stops at
// the first transform error.
func (d *Decipherer) DecipherAll(ctx context.Context, scriptURL string, ciphers []string) ([]string, error) {
	seq, err := d.Tokens(ctx, scriptURL)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ciphers))
	for i, c := range ciphers {
		if out[i], err = Apply(seq, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}
