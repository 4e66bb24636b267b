package types

// Format describes an available media source.
//
// A source either carries a direct URL or a SignatureCipher: the url-encoded
// triple (s, sp, url) whose s must be deciphered before the URL is playable.
type Format struct {
	Itag            int    `json:"itag"`
	URL             string `json:"url,omitempty"`
	Quality         string `json:"quality,omitempty"`
	MimeType        string `json:"type,omitempty"`
	Ext             string `json:"ext,omitempty"`
	Bitrate         int    `json:"bitrate,omitempty"`
	Size            int64  `json:"size,omitempty"`
	SignatureCipher string `json:"-"`
	// Signature is the deciphered signature, set once ResolveURL succeeds.
	Signature string `json:"signature,omitempty"`
	// Err holds the reason a ciphered source could not be resolved.
	Err string `json:"error,omitempty"`
}

// Ciphered reports whether the source still needs its signature deciphered.
func (f Format) Ciphered() bool {
	return f.URL == "" && f.SignatureCipher != ""
}

// VideoInfo describes video information.
type VideoInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Duration    int      `json:"length_seconds"`
	Uploader    string   `json:"author,omitempty"`
	ViewCount   int64    `json:"view_count,omitempty"`
	Status      string   `json:"status"`
	PlayerURL   string   `json:"player_url,omitempty"`
	Formats     []Format `json:"sources"`
}
